package main

import (
	"fmt"
	"os"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(os.Args[2:])
	case "build":
		err = runBuild(os.Args[2:])
	case "version":
		fmt.Printf("pubfront %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`pubfront - A blog front-end for a headless content API, built with Go, Echo, and templ

Usage:
  pubfront <command> [arguments]

Commands:
  serve [-config file]                     Run the web server
  build [-config file] [-out dir] [-all]   Export the site as static files
                                           (newest static_paths posts unless -all)
  version                                  Print the pubfront version
  help                                     Show this help message

Environment:
  CMS_API_ENDPOINT and SESSION_SECRET are required; see SiteConfig for the rest.

Examples:
  pubfront serve -config site.yaml
  pubfront build -out dist -all`)
}
