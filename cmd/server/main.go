package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/AshCena/web-command-center/internal/infrastructure/config"
	"github.com/AshCena/web-command-center/internal/infrastructure/server"
)

func main() {
	app := &cli.App{
		Name:  "command-center",
		Usage: "serve persistent shell sessions over WebSocket",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Path to a TOML config file.",
				EnvVars: []string{config.FileEnv},
			},
			&cli.StringFlag{
				Name:  "port",
				Usage: "Port for the HTTP server to listen on.",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host for the HTTP server to bind to.",
			},
			&cli.StringFlag{
				Name:  "shell",
				Usage: "Shell used to run commands.",
			},
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Absolute directory new sessions start in. Defaults to the home directory.",
			},
			&cli.BoolFlag{
				Name:  "dev",
				Usage: "Human-readable debug logging.",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.LoadFrom(c.String("config"))
	if err != nil {
		return err
	}

	if c.IsSet("port") {
		cfg.Server.Port = c.String("port")
	}
	if c.IsSet("host") {
		cfg.Server.Host = c.String("host")
	}
	if c.IsSet("shell") {
		cfg.Terminal.Shell = c.String("shell")
	}
	if c.IsSet("dir") {
		cfg.Terminal.DefaultDir = c.String("dir")
	}
	if c.Bool("dev") {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx)
}
