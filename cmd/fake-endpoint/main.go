// ABOUTME: Development question endpoint for exercising edi-chat without the real service
// ABOUTME: Usage: fake-endpoint [-addr :8000] [-rate 10] [-origins https://a,https://b]

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: loading .env: %v\n", err)
	}

	addr := flag.String("addr", envOr("FAKE_ENDPOINT_ADDR", ":8000"), "HTTP listen address")
	perMinute := flag.Int("rate", 10, "questions allowed per client per minute (0 disables)")
	origins := flag.String("origins", strings.Join(defaultOrigins, ","), "comma-separated CORS allow-list")
	delay := flag.Duration("delay", 0, "artificial latency added to every answer")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if err := run(*addr, serverOptions{
		PerMinute: *perMinute,
		Origins:   splitList(*origins),
		Delay:     *delay,
		Logger:    logger,
	}); err != nil {
		logger.Error("fake endpoint failed", "error", err)
		os.Exit(1)
	}
}

func run(addr string, opts serverOptions) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srv := &http.Server{
		Addr:              addr,
		Handler:           newRouter(opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		opts.Logger.Info("fake endpoint listening", "addr", addr, "rate_per_minute", opts.PerMinute)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
