package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	// A missing .env is fine; the environment still applies.
	_ = godotenv.Load()

	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "eventsctl: %v\n", err)
		os.Exit(1)
	}
}

func newApp(out, errOut io.Writer) *cli.App {
	return &cli.App{
		Name:      "eventsctl",
		Usage:     "Browse and manage events from the terminal.",
		Writer:    out,
		ErrWriter: errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "api", Value: "http://localhost:3000", EnvVars: []string{"API_BASE_URL"}, Usage: "base URL of the events REST API"},
			&cli.DurationFlag{Name: "timeout", Value: 10 * time.Second, EnvVars: []string{"GATEWAY_TIMEOUT"}, Usage: "per-request timeout"},
			&cli.IntFlag{Name: "fanout", Value: 4, EnvVars: []string{"CATEGORY_FANOUT"}, Usage: "concurrent category lookups"},
			&cli.StringFlag{Name: "log-level", Value: "warn", EnvVars: []string{"LOG_LEVEL"}, Usage: "debug, info, warn or error"},
		},
		Commands: []*cli.Command{
			listCommand(),
			showCommand(),
			createCommand(),
			deleteCommand(),
			watchCommand(),
		},
	}
}
