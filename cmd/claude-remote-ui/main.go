package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/epinadev/claude-remote-ui/internal/bot"
	"github.com/epinadev/claude-remote-ui/internal/config"
	"github.com/epinadev/claude-remote-ui/internal/hooks"
	"github.com/epinadev/claude-remote-ui/internal/logging"
	"github.com/epinadev/claude-remote-ui/internal/notify"
	"github.com/epinadev/claude-remote-ui/internal/state"
	"github.com/epinadev/claude-remote-ui/internal/tmux"
	"github.com/epinadev/claude-remote-ui/internal/web"
)

const Version = "0.3.0"

// shutdownTimeout bounds graceful HTTP shutdown on SIGINT/SIGTERM.
const shutdownTimeout = 5 * time.Second

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		printHelp()
		return
	}

	switch args[0] {
	case "version", "--version", "-v":
		fmt.Printf("claude-remote-ui v%s\n", Version)
	case "help", "--help", "-h":
		printHelp()
	case "serve":
		handleServe(args[1:])
	case "listen":
		handleListen(args[1:])
	case "notify":
		handleNotify(args[1:])
	case "hooks":
		handleHooks(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[0])
		printHelp()
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println("Usage: claude-remote-ui <command> [options]")
	fmt.Println()
	fmt.Println("Control Claude Code tmux sessions from your phone.")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve                        Run the web control server")
	fmt.Println("  listen                       Run the Telegram listener")
	fmt.Println("  notify <pushover|telegram>   Send a notification for the current pane")
	fmt.Println("  hooks install                Install Claude Code notification hooks")
	fmt.Println("  hooks uninstall              Remove Claude Code notification hooks")
	fmt.Println("  hooks status                 Show hook installation status")
	fmt.Println("  version                      Print version")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -config <path>               Config file (default: ~/.claude-remote-ui/config.toml)")
}

// loadConfig loads the TOML config and wires up logging from it. A missing
// or unparseable config file is fatal for every subcommand.
func loadConfig(path string) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logging.Init(logging.Config{
		LogDir:     config.Dir(),
		Level:      cfg.Logs.Level,
		Format:     cfg.Logs.Format,
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 10,
	})

	return cfg
}

// handleServe runs the web control server until SIGINT/SIGTERM.
func handleServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", config.DefaultPath(), "Config file path")
	listenAddr := fs.String("listen", "", "Listen address (overrides config, e.g. 0.0.0.0:8899)")

	fs.Usage = func() {
		fmt.Println("Usage: claude-remote-ui serve [options]")
		fmt.Println()
		fmt.Println("Run the web control server. The UI shows the active Claude pane's")
		fmt.Println("output, forwards replies to it, and switches between instances.")
		fmt.Println()
		fmt.Println("Options:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg := loadConfig(*configPath)
	defer logging.Shutdown()

	client := tmux.NewClient()
	if err := client.IsAvailable(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	addr := cfg.ListenAddr()
	if *listenAddr != "" {
		addr = *listenAddr
	}

	store := state.NewStore(config.Dir(), client.Exists)
	server := web.NewServer(web.Config{ListenAddr: addr}, store, client)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logging.Logger().Warn("shutdown_failed", slog.String("error", err.Error()))
		}
	}()

	fmt.Printf("Web control server listening on %s\n", server.Addr())
	fmt.Printf("Open %s on your phone\n", cfg.BaseURL())

	if err := server.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Server stopped")
}

// handleListen runs the Telegram long-poll listener until SIGINT/SIGTERM.
func handleListen(args []string) {
	fs := flag.NewFlagSet("listen", flag.ExitOnError)
	configPath := fs.String("config", config.DefaultPath(), "Config file path")

	fs.Usage = func() {
		fmt.Println("Usage: claude-remote-ui listen [options]")
		fmt.Println()
		fmt.Println("Run the Telegram listener. Messages from the configured chat are")
		fmt.Println("forwarded to the active Claude pane; /help lists bot commands.")
		fmt.Println()
		fmt.Println("Options:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg := loadConfig(*configPath)
	defer logging.Shutdown()

	client := tmux.NewClient()
	if err := client.IsAvailable(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	store := state.NewStore(config.Dir(), client.Exists)
	listener, err := bot.NewListener(cfg, store, client)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		listener.Stop()
	}()

	if err := listener.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Listener stopped")
}

// handleNotify runs a one-shot dispatcher for the invoking pane. Invoked by
// Claude Code hooks, so it must never break the hook: outside tmux it exits
// zero and a failed send is reported but still exits non-zero only so the
// hook log shows it.
func handleNotify(args []string) {
	fs := flag.NewFlagSet("notify", flag.ExitOnError)
	configPath := fs.String("config", config.DefaultPath(), "Config file path")

	fs.Usage = func() {
		fmt.Println("Usage: claude-remote-ui notify <pushover|telegram> [options]")
		fmt.Println()
		fmt.Println("Capture the invoking tmux pane's recent output and send it as a")
		fmt.Println("notification. Designed to run from a Claude Code hook.")
		fmt.Println()
		fmt.Println("Options:")
		fs.PrintDefaults()
	}

	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" {
		fs.Usage()
		os.Exit(1)
	}
	channelName := args[0]

	if err := fs.Parse(args[1:]); err != nil {
		os.Exit(1)
	}

	cfg := loadConfig(*configPath)
	defer logging.Shutdown()

	var channel notify.Channel
	switch channelName {
	case "pushover":
		channel = notify.NewPushoverChannel(cfg)
	case "telegram":
		channel = notify.NewTelegramChannel(cfg)
	default:
		fmt.Fprintf(os.Stderr, "Unknown channel: %s (expected pushover or telegram)\n", channelName)
		os.Exit(1)
	}

	client := tmux.NewClient()
	store := state.NewStore(config.Dir(), client.Exists)

	err := notify.Dispatch(cfg, store, client, channel, tmux.CurrentPane())
	if errors.Is(err, notify.ErrNotInTmux) {
		// Normal when the hook fires outside tmux. Nothing to report.
		fmt.Println("Not running inside tmux, skipping notification")
		return
	}
	if err != nil {
		os.Exit(1)
	}
}

// handleHooks installs, removes, or inspects the Claude Code hook entries
// that invoke the notify dispatchers.
func handleHooks(args []string) {
	if len(args) == 0 {
		printHooksUsage()
		os.Exit(1)
	}

	fs := flag.NewFlagSet("hooks", flag.ExitOnError)
	configPath := fs.String("config", config.DefaultPath(), "Config file path")
	fs.Usage = printHooksUsage

	sub := args[0]
	if err := fs.Parse(args[1:]); err != nil {
		os.Exit(1)
	}

	configDir := hooks.ConfigDir()

	switch sub {
	case "install":
		cfg := loadConfig(*configPath)
		defer logging.Shutdown()

		var channels []string
		if ok, _ := cfg.Pushover.Configured(); ok {
			channels = append(channels, "pushover")
		}
		if ok, _ := cfg.Telegram.Configured(); ok {
			channels = append(channels, "telegram")
		}
		if len(channels) == 0 {
			fmt.Fprintln(os.Stderr, "Error: no notification channel is configured")
			fmt.Fprintln(os.Stderr, "Enable pushover or telegram in config.toml first")
			os.Exit(1)
		}

		installed, err := hooks.Install(configDir, channels)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if installed {
			fmt.Printf("Hooks installed for: %v\n", channels)
			fmt.Println("Claude Code will notify you on Notification and Stop events")
		} else {
			fmt.Println("Hooks already installed")
		}

	case "uninstall":
		removed, err := hooks.Remove(configDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if removed {
			fmt.Println("Hooks removed")
		} else {
			fmt.Println("No hooks were installed")
		}

	case "status":
		if hooks.Installed(configDir) {
			fmt.Println("Hooks: installed")
		} else {
			fmt.Println("Hooks: not installed")
			fmt.Println("Run 'claude-remote-ui hooks install' to set them up")
		}

	default:
		fmt.Fprintf(os.Stderr, "Unknown hooks command: %s\n\n", sub)
		printHooksUsage()
		os.Exit(1)
	}
}

func printHooksUsage() {
	fmt.Println("Usage: claude-remote-ui hooks <install|uninstall|status>")
	fmt.Println()
	fmt.Println("Manage the Claude Code settings.json hook entries that trigger")
	fmt.Println("notifications on Notification and Stop events.")
}
