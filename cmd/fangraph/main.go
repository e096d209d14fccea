package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fangraph/fangraph"
	fanhttp "github.com/fangraph/fangraph/http"
	"github.com/fangraph/fangraph/scrape"
	fanslog "github.com/fangraph/fangraph/slog"
	"github.com/fangraph/fangraph/sqlite"
	"github.com/fangraph/fangraph/web"
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Response cache path. Set before calling Run().
	CachePath string

	// Cache used by the gateway. Opened by Run().
	Cache *sqlite.Cache
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		CachePath: defaultCachePath(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.Cache != nil {
		return m.Cache.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
		Stats:  &fangraph.Stats{},
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("fangraph"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'fangraph --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	if cmd == "scrape" {
		if cli.Scrape.CacheDir != "" {
			if err := os.MkdirAll(cli.Scrape.CacheDir, 0755); err != nil {
				return fmt.Errorf("failed to create cache directory %q: %w", cli.Scrape.CacheDir, err)
			}
			m.CachePath = filepath.Join(cli.Scrape.CacheDir, "fangraph.db")
		}
		m.Cache = sqlite.NewCache(m.CachePath)
		if err := m.Cache.Open(); err != nil {
			fmt.Fprintf(stderr, "Hint: Set FANGRAPH_CACHE to use a different cache path\n")
			return fmt.Errorf("failed to open response cache at %q: %w", m.CachePath, err)
		}
		defer m.Close()

		level := slog.LevelWarn
		if cli.Scrape.Verbose {
			level = slog.LevelInfo
		}
		logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

		interval := fanhttp.DefaultMinInterval
		if cli.Scrape.Rate > 0 {
			interval = time.Duration(float64(time.Second) / cli.Scrape.Rate)
		}
		client := fanhttp.NewClient(fanhttp.WithMinInterval(interval))

		gateway := web.NewGateway(
			m.Cache,
			fanslog.NewLoggingWebClient(client, logger),
			deps.Stats,
			web.WithLogger(logger),
		)
		defer gateway.Close()

		deps.Router = scrape.NewRouter(gateway, deps.Stats,
			scrape.WithWorkers(cli.Scrape.Workers),
			scrape.WithLogger(logger),
		)
		defer deps.Router.Close()
	}

	return kongCtx.Run(deps)
}

func defaultCachePath() string {
	if path := os.Getenv("FANGRAPH_CACHE"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "fangraph.db"
	}
	dir := filepath.Join(home, ".fangraph")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "fangraph.db")
}
