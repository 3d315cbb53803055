package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eringen/pubfront"
)

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "YAML config file")
	staticDir := fs.String("static", "public", "directory served under /public")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := pubfront.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	cfg.SessionSecret = pubfront.MustEnv("SESSION_SECRET")

	app := pubfront.New(cfg, pubfront.ViewFuncs{}, pubfront.WithStaticDir(*staticDir))
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- app.Start() }()
	log.Printf("pubfront %s listening on %s", version, app.Config.Addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.Echo.Shutdown(shutdownCtx)
}
