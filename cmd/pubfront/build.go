package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/eringen/pubfront"
)

func runBuild(args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	configPath := fs.String("config", "", "YAML config file")
	out := fs.String("out", "dist", "output directory")
	all := fs.Bool("all", false, "render every post; without it only the newest static paths are exported and linked")
	timeout := fs.Duration("timeout", 5*time.Minute, "overall export timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := pubfront.LoadConfig(*configPath)
	if err != nil {
		return err
	}

	app := pubfront.New(cfg, pubfront.ViewFuncs{})
	defer app.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	start := time.Now()
	n, err := app.Generate(ctx, pubfront.GenerateOptions{Dir: *out, All: *all})
	if err != nil {
		return err
	}
	log.Printf("wrote %d posts to %s in %s", n, *out, time.Since(start).Round(time.Millisecond))
	return nil
}
