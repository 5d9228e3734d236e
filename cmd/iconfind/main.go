package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/iconfind/internal/infrastructure/config"
	"github.com/GriffinCanCode/iconfind/internal/infrastructure/server"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "YAML or TOML config file")
	demo := flag.Bool("demo", false, "Serve the fixture API in-process")
	metricsAddr := flag.String("metrics", "", "Serve /metrics and /health on this address")
	dev := flag.Bool("dev", false, "Development logging (colored, debug level)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}
	if *dev {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}

	srv, err := server.NewServer(cfg, server.Options{
		Demo: *demo,
		OnDismiss: func() {
			fmt.Fprintln(os.Stdout, "sign in first: login <user> <pass>")
		},
	})
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer func() {
		if err := srv.Close(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}()

	if err := srv.Run(); err != nil {
		log.Printf("Metrics endpoint disabled: %v", err)
	}

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *demo {
		fmt.Printf("demo api at %s (login %s %s)\n", cfg.API.Base, server.DemoUser, server.DemoPassword)
	}
	fmt.Println(`iconfind ready, "help" lists commands`)

	repl(ctx, newConsole(srv, os.Stdout), os.Stdin)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(path)
}

// repl feeds input lines to the console until quit, EOF or cancellation
func repl(ctx context.Context, c *console, in io.Reader) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Fprint(c.out, "> ")
		select {
		case <-ctx.Done():
			fmt.Fprintln(c.out)
			return
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(c.out)
				return
			}
			quit, err := c.exec(ctx, line)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				c.srv.Logger().Debug("command failed", zap.String("line", line), zap.Error(err))
				fmt.Fprintln(c.out, "error:", err)
			}
			if quit {
				return
			}
		}
	}
}
