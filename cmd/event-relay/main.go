// ABOUTME: Entry point for event-relay
// ABOUTME: Runs the client and service bots and manages the item catalog from the command line

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/2389/event-relay/internal/config"
	"github.com/2389/event-relay/internal/gateway"
	"github.com/2389/event-relay/internal/telegram"
)

// version is set with -ldflags at build time.
var version = "dev"

const banner = `
                        _                 _
  _____   _____ _ __ | |_      _ __ ___| | __ _ _   _
 / _ \ \ / / _ \ '_ \| __|____| '__/ _ \ |/ _' | | | |
|  __/\ V /  __/ | | | ||_____| | |  __/ | (_| | |_| |
 \___| \_/ \___|_| |_|\__|    |_|  \___|_|\__,_|\__, |
                                                |___/
`

// getConfigPath returns the path to the relay config file.
// Priority: --config flag > EVENT_RELAY_CONFIG env var > XDG_CONFIG_HOME/event-relay/relay.yaml > ~/.config/event-relay/relay.yaml
func getConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envPath := os.Getenv("EVENT_RELAY_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "relay.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "event-relay", "relay.yaml")
}

func usage() {
	fmt.Println("Usage: event-relay <command> [--config PATH]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve                  Run the client and service bots")
	fmt.Println("  items add|list|delete  Manage catalog items")
	fmt.Println("  health                 Check relay health")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	// A missing .env is fine; variables may come from the environment.
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx, os.Args[2:])
	case "items":
		err = runItems(ctx, os.Args[2:])
	case "health":
		err = runHealth(ctx, os.Args[2:])
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig parses the --config flag out of args and loads the file.
// It returns the remaining positional arguments.
func loadConfig(name string, args []string, extra func(*pflag.FlagSet)) (*config.Config, string, []string, error) {
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	configFlag := flags.String("config", "", "path to the config file (YAML or TOML)")
	if extra != nil {
		extra(flags)
	}
	if err := flags.Parse(args); err != nil {
		return nil, "", nil, err
	}

	path := getConfigPath(*configFlag)
	cfg, err := config.Load(path)
	if err != nil {
		return nil, path, nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, path, flags.Args(), nil
}

func runServe(ctx context.Context, args []string) error {
	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, configPath, _, err := loadConfig("serve", args, nil)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Logging, os.Stdout)
	if err := telegram.InstallLogger(logger); err != nil {
		return fmt.Errorf("installing bot api logger: %w", err)
	}

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("Database:  %s (%s)\n", cfg.Database.Path, cfg.Database.Driver)
	green.Print("    ▶ ")
	fmt.Printf("Updates:   ")
	yellow.Println(cfg.Transport.Mode)
	if cfg.Transport.HTTPAddr != "" {
		green.Print("    ▶ ")
		fmt.Printf("HTTP:      %s\n", cfg.Transport.HTTPAddr)
	}
	fmt.Println()

	logger.Info("starting event-relay",
		"config", configPath,
		"mode", cfg.Transport.Mode,
		"http_addr", cfg.Transport.HTTPAddr,
	)

	gw, err := gateway.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}

	return gw.Run(ctx)
}

func runHealth(ctx context.Context, args []string) error {
	cfg, _, _, err := loadConfig("health", args, nil)
	if err != nil {
		return err
	}
	if cfg.Transport.HTTPAddr == "" {
		return fmt.Errorf("transport.http_addr is not set, nothing to check")
	}

	url := fmt.Sprintf("http://%s/healthz", cfg.Transport.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}
