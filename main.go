package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/dpshade/promptpad/internal/cli"
	"github.com/dpshade/promptpad/internal/clipboard"
	"github.com/dpshade/promptpad/internal/completion"
	"github.com/dpshade/promptpad/internal/config"
	"github.com/dpshade/promptpad/internal/controller"
	apperrors "github.com/dpshade/promptpad/internal/errors"
	"github.com/dpshade/promptpad/internal/logger"
	"github.com/dpshade/promptpad/internal/relay"
	"github.com/dpshade/promptpad/internal/renderer"
	"github.com/dpshade/promptpad/internal/storage"
	"github.com/dpshade/promptpad/internal/ui"
	"github.com/dpshade/promptpad/internal/web"
)

var version = "0.1.0"

const shutdownTimeout = 10 * time.Second

func printHelp() {
	fmt.Printf(`promptpad - Keep a collection of prompts and send them to an AI

USAGE:
    promptpad [OPTIONS] [COMMAND]

OPTIONS:
    --help          Show this help information
    --version       Print version information
    --web           Serve the browser page (default: localhost:8080)
    --relay         Run the completion relay (default: localhost:3000)
    --port          Port for --web or --relay, overriding the config
    --config        Directory holding config.yaml
    --verbose       Show error causes and log command failures

COMMANDS:
    (no command)       Start interactive TUI mode
    list, ls           List all prompts
    search <query>     Search prompts (--fuzzy for fuzzy ranking)
    show, get <id>     Show a prompt and its stored response
    create, new        Store a new prompt (--title, --content)
    edit <id>          Change a stored prompt
    delete, rm <id>    Delete a prompt
    copy <id>          Copy a prompt's text to the clipboard
    send <id>          Send a prompt to the relay and store the response
    export             Export the collection (--format json|yaml)
    import <file>      Merge prompts from an export

EXAMPLES:
    promptpad                                        # Start interactive mode
    promptpad --web --port 9000                      # Serve the page on port 9000
    GROQ_API_KEY=... promptpad --relay               # Start the relay
    promptpad create --title "Review" --content "Review this diff."
    promptpad search --fuzzy rvw
    promptpad export --format yaml --output backup.yaml

STORAGE:
    Default directory: ~/.promptpad/store
    Override with: PROMPTPAD_STORE_PATH=<path> or store.path in config.yaml

ENVIRONMENT:
    GROQ_API_KEY           Upstream key used by --relay
    PORT                   Relay port only; the page uses PROMPTPAD_WEB_PORT
    PROMPTPAD_RENDERER_CONTENT_FORMAT
                           plain (default) or markup
`)
}

func main() {
	var showVersion bool
	var showHelp bool
	var webMode bool
	var relayMode bool
	var port int
	var configPath string
	var verbose bool

	flag.BoolVar(&showVersion, "version", false, "Print version information")
	flag.BoolVar(&showHelp, "help", false, "Show help information")
	flag.BoolVar(&webMode, "web", false, "Serve the browser page")
	flag.BoolVar(&relayMode, "relay", false, "Run the completion relay")
	flag.IntVar(&port, "port", 0, "Port for --web or --relay")
	flag.StringVar(&configPath, "config", "", "Directory holding config.yaml")
	flag.BoolVar(&verbose, "verbose", false, "Show error causes")
	flag.Parse()

	if showHelp {
		printHelp()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("promptpad version %s\n", version)
		os.Exit(0)
	}

	if webMode && relayMode {
		fmt.Fprintln(os.Stderr, "Error: --web and --relay cannot be combined")
		os.Exit(1)
	}

	cfg, err := config.LoadWithPath(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if port > 0 {
		if relayMode {
			cfg.Relay.Port = port
		} else {
			cfg.Web.Port = port
		}
	}

	args := flag.Args()
	tuiMode := !webMode && !relayMode && len(args) == 0

	if !relayMode {
		if err := cfg.EnsureStoreDir(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	// The TUI owns the terminal, so its log goes to a file
	if tuiMode && (cfg.Logging.OutputPath == "" || cfg.Logging.OutputPath == "stderr" || cfg.Logging.OutputPath == "stdout") {
		cfg.Logging.OutputPath = filepath.Join(filepath.Dir(cfg.Store.Path), "promptpad.log")
	}
	log, err := logger.NewLogger(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.OutputPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if relayMode {
		if err := runRelay(ctx, cfg, log); err != nil {
			log.Error("relay stopped", zap.Error(err))
			_ = log.Sync()
			os.Exit(1)
		}
		return
	}

	store := storage.NewStorage(cfg.Store.Path, log)
	format := cfg.Renderer.Format()
	ctl := controller.NewController(store.Load(), controller.Options{
		Store:     store,
		Clipboard: clipboard.System{},
		Completer: completion.NewClient(cfg.Relay.URL, nil),
		Renderer: renderer.NewRenderer(renderer.Options{
			SanitizeMarkup: cfg.Renderer.SanitizeMarkup,
			Format:         format,
		}),
		Logger: log,
		Format: format,
	})

	if webMode {
		if err := runWeb(ctx, cfg, ctl, log); err != nil {
			log.Error("page server stopped", zap.Error(err))
			_ = log.Sync()
			os.Exit(1)
		}
		return
	}

	if len(args) > 0 {
		// CLI mode - execute command and exit
		handler := apperrors.NewCLIErrorHandler(verbose, log)
		if err := cli.NewCLI(ctl, store, nil).ExecuteCommand(ctx, args); err != nil {
			fmt.Fprintln(os.Stderr, handler.HandleError(err))
			_ = log.Sync()
			os.Exit(1)
		}
		return
	}

	model := ui.NewModel(ctx, ctl, log)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		log.Error("terminal UI stopped", zap.Error(err))
		_ = log.Sync()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runRelay(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	if cfg.Relay.APIKey == "" {
		log.Warn("no API key configured; set GROQ_API_KEY or relay.api_key")
	}

	completer, err := relay.NewChatCompleter(ctx, relay.UpstreamConfig{
		BaseURL: cfg.Relay.UpstreamURL,
		Model:   cfg.Relay.Model,
		APIKey:  cfg.Relay.APIKey,
	})
	if err != nil {
		return err
	}

	srv := relay.NewServer(completer, cfg.RelayAddr(), log)
	return serve(ctx, srv.Start, srv.Stop)
}

func runWeb(ctx context.Context, cfg *config.Config, ctl *controller.Controller, log *logger.Logger) error {
	srv, err := web.NewServer(ctl, cfg.WebAddr(), log)
	if err != nil {
		return err
	}
	fmt.Printf("promptpad page at http://%s\n", cfg.WebAddr())
	return serve(ctx, srv.Start, srv.Stop)
}

// serve runs start until it fails or ctx is cancelled, then shuts down
func serve(ctx context.Context, start func() error, stop func(context.Context) error) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return stop(shutdownCtx)
}
