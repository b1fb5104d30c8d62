// Command spidr crawls websites, caching one HTTP session per
// destination for the lifetime of the run.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/subcommands"

	"github.com/davidsauntson/spidr/internal/agent"
	"github.com/davidsauntson/spidr/internal/app"
	"github.com/davidsauntson/spidr/internal/model"
	"github.com/davidsauntson/spidr/internal/slogx"
)

// App holds application dependencies built by Wire.
type App struct {
	Config *app.Config
	Agent  *agent.Agent
}

func init() {
	slog.SetDefault(slogx.NewDefault("info"))
}

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(&crawlCmd{mode: modeStart}, "crawling")
	subcommands.Register(&crawlCmd{mode: modeSite}, "crawling")
	subcommands.Register(&crawlCmd{mode: modeHost}, "crawling")

	flag.Parse()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(int(subcommands.Execute(ctx)))
}

type crawlMode int

const (
	modeStart crawlMode = iota
	modeSite
	modeHost
)

// crawlCmd runs one crawl. The three registered instances differ only
// in where the crawl is allowed to go.
type crawlCmd struct {
	mode    crawlMode
	depth   int
	pages   int
	workers int
	delay   time.Duration
	out     string
}

func (c *crawlCmd) Name() string {
	switch c.mode {
	case modeSite:
		return "site"
	case modeHost:
		return "host"
	default:
		return "crawl"
	}
}

func (c *crawlCmd) Synopsis() string {
	switch c.mode {
	case modeSite:
		return "crawl a URL, confined to its host"
	case modeHost:
		return "crawl a host starting from its root"
	default:
		return "crawl outward from a URL, following links anywhere"
	}
}

func (c *crawlCmd) Usage() string {
	arg := "<url>"
	if c.mode == modeHost {
		arg = "<host>"
	}
	return fmt.Sprintf("%s [flags] %s:\n  %s\n", c.Name(), arg, c.Synopsis())
}

func (c *crawlCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.depth, "depth", -1, "max link depth below the seed (0 = unlimited)")
	f.IntVar(&c.pages, "pages", -1, "max pages to fetch (0 = unlimited)")
	f.IntVar(&c.workers, "workers", -1, "concurrent fetches")
	f.DurationVar(&c.delay, "delay", -1, "politeness pause before each fetch")
	f.StringVar(&c.out, "out", "", "output directory (default $DATA_DIR)")
}

func (c *crawlCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	target := f.Arg(0)
	if target == "" {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}

	a, err := InitializeApp()
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return subcommands.ExitFailure
	}
	cfg, ag := a.Config, a.Agent
	slog.SetDefault(slogx.NewDefault(cfg.LogLevel))
	c.override(cfg, ag)

	// Fan in worker logs through one printer so concurrent fetches
	// don't interleave mid-line.
	if ag.Workers > 1 {
		lines := make(chan string, 256)
		go func() {
			for s := range lines {
				fmt.Println(s)
			}
		}()
		ag.Logger = slogx.NewChanLogger(lines, cfg.LogLevel)
	}

	slog.Info("starting crawl",
		"mode", c.Name(), "target", target,
		"workers", ag.Workers, "depth", ag.MaxDepth, "pages", ag.MaxPages,
		"out", ag.OutDir, "format", cfg.SaveFormat)

	var records []model.PageRecord
	switch c.mode {
	case modeSite:
		records, err = ag.Site(ctx, target)
	case modeHost:
		records, err = ag.Host(ctx, target)
	default:
		records, err = ag.StartAt(ctx, target)
	}
	if err != nil {
		slog.Error("crawl failed", "error", err)
		return subcommands.ExitFailure
	}

	slog.Info("crawl complete", "pages", len(records), "out", ag.OutDir)
	return subcommands.ExitSuccess
}

// override applies command-line flags on top of env configuration.
func (c *crawlCmd) override(cfg *app.Config, ag *agent.Agent) {
	if c.depth >= 0 {
		ag.MaxDepth = c.depth
	}
	if c.pages >= 0 {
		ag.MaxPages = c.pages
	}
	if c.workers > 0 {
		ag.Workers = c.workers
	}
	if c.delay >= 0 {
		ag.Delay = c.delay
	}
	if c.out != "" {
		ag.OutDir = c.out
	}
}
