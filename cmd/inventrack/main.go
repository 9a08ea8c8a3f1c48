package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
	"golang.org/x/text/language"

	"github.com/erazemk/inventrack/internal/api"
	"github.com/erazemk/inventrack/internal/cache"
	"github.com/erazemk/inventrack/internal/observability"
	"github.com/erazemk/inventrack/internal/store"
	"github.com/erazemk/inventrack/internal/web"
)

const tokenEnv = "INVENTRACK_API_TOKEN"

// levelRouter is a slog.Handler that routes INFO/WARN to stdout and ERROR+ to stderr.
type levelRouter struct {
	stdout slog.Handler
	stderr slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithAttrs(attrs),
		stderr: lr.stderr.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithGroup(name),
		stderr: lr.stderr.WithGroup(name),
	}
}

// setupLogger configures structured logging. If logPath is non-empty, all
// levels are also written to that file. The returned cleanup may be nil.
func setupLogger(logPath string) (func(), error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var cleanup func()

	stdoutW := io.Writer(os.Stdout)
	stderrW := io.Writer(os.Stderr)

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		stdoutW = io.MultiWriter(os.Stdout, f)
		stderrW = io.MultiWriter(os.Stderr, f)
	}

	handler := &levelRouter{
		stdout: slog.NewTextHandler(stdoutW, opts),
		stderr: slog.NewTextHandler(stderrW, opts),
	}
	slog.SetDefault(slog.New(handler))
	return cleanup, nil
}

// newCacheBackend returns a redis backend when addr is set, and an in-process
// one otherwise.
func newCacheBackend(ctx context.Context, addr string) (cache.Backend, func(), error) {
	if addr == "" {
		return cache.NewMemory(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return cache.NewRedis(client, "inventrack:"), func() { client.Close() }, nil
}

// errUsage reports invalid command-line arguments. The usage text has
// already been printed.
var errUsage = errors.New("invalid arguments")

func main() {
	if err := run(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		if err != errUsage {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("inventrack", flag.ContinueOnError)

	var addr string
	fs.StringVar(&addr, "addr", ":8080", "")
	fs.StringVar(&addr, "a", ":8080", "")

	var apiURL string
	fs.StringVar(&apiURL, "api", "", "")

	var tokenScheme string
	fs.StringVar(&tokenScheme, "token-scheme", "Token", "")

	var cacheTTL time.Duration
	fs.DurationVar(&cacheTTL, "cache-ttl", cache.DefaultTTL, "")
	fs.DurationVar(&cacheTTL, "c", cache.DefaultTTL, "")

	var redisAddr string
	fs.StringVar(&redisAddr, "redis", os.Getenv("REDIS_ADDR"), "")

	var locale string
	fs.StringVar(&locale, "locale", "en", "")

	var timeout time.Duration
	fs.DurationVar(&timeout, "timeout", 30*time.Second, "")

	var logPath string
	fs.StringVar(&logPath, "log", "", "")
	fs.StringVar(&logPath, "l", "", "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: inventrack -api <url> [flags]

Flags:
  -api <url>              backend base URL (required)
  -a, -addr <host:port>   listen address (default: :8080)
  -token-scheme <scheme>  Authorization scheme for the API token (default: Token)
  -c, -cache-ttl <dur>    how long fetched collections are cached (default: 30s)
  -redis <host:port>      share the cache through redis (default: $REDIS_ADDR, else in memory)
  -locale <tag>           collation locale for sorting names (default: en)
  -timeout <dur>          backend request timeout (default: 30s)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -h, -help               show this help and exit

Environment:
  INVENTRACK_API_TOKEN    API token sent with every backend request
`)
	}

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return err
		}
		return errUsage
	}

	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		return errUsage
	}
	if apiURL == "" {
		fmt.Fprintln(os.Stderr, "error: -api is required")
		fs.Usage()
		return errUsage
	}

	tag, err := language.Parse(locale)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: invalid locale %q: %v\n", locale, err)
		return errUsage
	}

	closeLog, err := setupLogger(logPath)
	if err != nil {
		return err
	}
	if closeLog != nil {
		defer closeLog()
	}

	obs := observability.NewConfig(
		observability.WithTracerProvider(otel.GetTracerProvider()),
		observability.WithMeterProvider(otel.GetMeterProvider()),
		observability.WithServerTiming(),
	)

	opts := []api.Option{
		api.WithHTTPClient(&http.Client{Timeout: timeout}),
		api.WithObservability(obs),
	}
	if token := os.Getenv(tokenEnv); token != "" {
		opts = append(opts, api.WithToken(tokenScheme, token))
	} else {
		slog.Warn("no API token set, backend requests are unauthenticated", "env", tokenEnv)
	}
	client, err := api.New(apiURL, opts...)
	if err != nil {
		return fmt.Errorf("invalid backend URL: %w", err)
	}

	backend, closeCache, err := newCacheBackend(context.Background(), redisAddr)
	if err != nil {
		return fmt.Errorf("setting up cache: %w", err)
	}
	defer closeCache()
	c := cache.New(backend, cache.WithTTL(cacheTTL), cache.WithObservability(obs))

	router, err := web.NewRouter(web.Config{
		Backend:       client,
		Store:         store.New(client, c),
		Cache:         c,
		Locale:        tag,
		Observability: obs,
	})
	if err != nil {
		return fmt.Errorf("setting up web router: %w", err)
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      timeout + 30*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", addr, "api", client.BaseURL(), "cache_ttl", c.TTL(), "redis", redisAddr != "")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
