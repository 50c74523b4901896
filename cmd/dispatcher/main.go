package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/pflag"

	"github.com/monorepo-trigger/internal/config"
	"github.com/monorepo-trigger/internal/dispatcher"
	"github.com/monorepo-trigger/internal/event"
	"github.com/monorepo-trigger/internal/github"
	"github.com/monorepo-trigger/internal/gitrepo"
	"github.com/monorepo-trigger/internal/pipeline"
	"github.com/monorepo-trigger/internal/pubsub"
	"github.com/monorepo-trigger/internal/server"
	"github.com/monorepo-trigger/internal/store"
	"github.com/monorepo-trigger/internal/vcs"
)

type options struct {
	configPath string
	eventPath  string
	preview    bool
	renderMap  bool
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		slog.Error("dispatcher failed", "err", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	var opts options
	flagSet := pflag.NewFlagSet("dispatcher", pflag.ContinueOnError)
	flagSet.StringVar(&opts.configPath, "config", os.Getenv("CONFIG_FILE"), "YAML configuration file (environment overrides it)")
	flagSet.StringVar(&opts.eventPath, "event", "", "dispatch the push notification in this file ('-' for stdin) and exit")
	flagSet.BoolVar(&opts.preview, "preview", false, "with --event, resolve pipelines without starting them or recording state")
	flagSet.BoolVar(&opts.renderMap, "render-map", false, "print the directory to pipeline map of the built-in catalog and exit")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if opts.preview && opts.eventPath == "" {
		return errors.New("--preview requires --event")
	}

	if opts.renderMap {
		data, err := pipeline.DefaultCatalog().MapJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, string(data))
		return err
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	slog.SetDefault(newLogger(cfg.LogLevel, cfg.LogFormat))
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	gh := github.NewClient(cfg.GHToken, cfg.GitHubOwner)
	gh.BaseURL = cfg.GitHubAPIURL
	d := dispatcher.New(newVCS(cfg, gh), newStarter(cfg, gh), st)

	if opts.eventPath != "" {
		return invokeOnce(ctx, d, opts, stdin, stdout)
	}
	return serve(ctx, cfg, d, st, gh)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load(), nil
	}
	return config.LoadFile(path)
}

func newLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, handlerOpts))
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	switch cfg.StateBackend {
	case store.BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		pg := store.NewPostgres(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("ensure schema: %w", err)
		}
		slog.Info("database connected")
		return pg, pool.Close, nil
	case store.BackendRedis:
		r, err := store.NewRedis(store.RedisConfig{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, Database: cfg.RedisDB})
		if err != nil {
			return nil, nil, err
		}
		slog.Info("redis connected", "addr", cfg.RedisAddr)
		return r, func() { _ = r.Close() }, nil
	case store.BackendBolt:
		b, err := store.NewBolt(cfg.BoltPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open bolt store: %w", err)
		}
		slog.Info("bolt store opened", "path", cfg.BoltPath)
		return b, func() { _ = b.Close() }, nil
	default:
		slog.Warn("using in-memory state; last commits are lost on restart")
		return store.NewMemory(), func() {}, nil
	}
}

func newVCS(cfg *config.Config, gh *github.Client) vcs.Service {
	if cfg.VCSBackend == "git" {
		return gitrepo.New(cfg.GitReposRoot)
	}
	return gh
}

func newStarter(cfg *config.Config, gh *github.Client) pipeline.Starter {
	if cfg.PipelineBackend == "dryrun" {
		return pipeline.NewDryRun(pipeline.DefaultCatalog())
	}
	return gh
}

// invokeOnce handles a single notification the way one hosted invocation would.
func invokeOnce(ctx context.Context, d *dispatcher.Dispatcher, opts options, stdin io.Reader, stdout io.Writer) error {
	var raw []byte
	var err error
	if opts.eventPath == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(opts.eventPath)
	}
	if err != nil {
		return fmt.Errorf("read event: %w", err)
	}

	var res *dispatcher.Result
	if opts.preview {
		trig, perr := event.Parse(raw)
		if perr != nil {
			return perr
		}
		res, err = d.Preview(ctx, trig)
	} else {
		res, err = d.Handle(ctx, raw)
	}
	if err != nil {
		return err
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func serve(ctx context.Context, cfg *config.Config, d *dispatcher.Dispatcher, st store.Store, gh *github.Client) error {
	slog.Info("starting", "http_addr", cfg.HTTPAddr, "queue_size", cfg.QueueSize, "vcs", cfg.VCSBackend, "pipelines", cfg.PipelineBackend, "state", cfg.StateBackend)

	// Bounded channel for backpressure; one consumer keeps invocations serial.
	jobs := make(chan pubsub.DispatchJob, cfg.QueueSize)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	cons := pubsub.NewConsumer(d, jobs)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		cons.Run(runCtx)
	}()
	slog.Info("dispatch worker started")

	if cfg.PollIntervalSec > 0 && len(cfg.PollRepositories) > 0 {
		pollInterval := time.Duration(cfg.PollIntervalSec) * time.Second
		prod := pubsub.NewProducer(gh, cfg.PollRepositories, jobs, pollInterval)
		wg.Add(1)
		go func() {
			defer wg.Done()
			prod.Run(runCtx)
		}()
		slog.Info("producer started", "poll_interval", pollInterval)
	}

	srv := server.NewServer(cfg.HTTPAddr, st, jobs)
	go func() {
		slog.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("http server", "err", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	slog.Info("shutting down", "signal", "received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http server shutdown", "err", err)
	} else {
		slog.Info("http server stopped")
	}
	cancel()
	wg.Wait()
	slog.Info("workers stopped")
	return nil
}
