package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"roxom_mm/internal/app"
	"roxom_mm/internal/infra"
)

func main() {
	// Secrets (ROXOM_API_KEY etc.) may live in a local .env file.
	godotenv.Load()

	configPath := flag.String("config", "", "path to config.yaml (default: auto-resolved)")
	flag.Parse()

	path := *configPath
	if path == "" {
		path = infra.ResolveConfigPath()
	}

	a, err := app.NewApp(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ bootstrapping failed: %v\n", err)
		os.Exit(1)
	}

	// First signal cancels all resting orders and starts a graceful stop;
	// a second one force-exits.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		go a.TriggerShutdown()
		<-sigCh
		fmt.Fprintln(os.Stderr, "forced exit")
		os.Exit(1)
	}()

	a.Run(context.Background())
}
