// Package main is the entry point for the beatgrid API server
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/james-see/beatgrid/pkg/api"
	"github.com/james-see/beatgrid/pkg/config"
)

func main() {
	port := flag.Int("port", 8080, "Server port")
	configPath := flag.String("config", "", "YAML or TOML settings file")
	flag.Parse()

	f, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Starting beatgrid API server on port %d (%dms slots)...\n", *port, f.Codec.Step)
	fmt.Printf("Swagger docs available at http://localhost:%d/swagger/index.html\n", *port)

	if err := api.StartServer(*port, f.Codec); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
