package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"abbot-web/internal/app"
)

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(2)
	}

	// Graceful shutdown on Ctrl+C
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "abbotweb: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, output io.Writer) (app.Options, error) {
	fs := flag.NewFlagSet("abbotweb", flag.ContinueOnError)
	fs.SetOutput(output)
	configPath := fs.String("config", "config.json", "path to config.json (optional; defaults and ABBOT_* env apply when missing)")
	logDir := fs.String("log-dir", "data", "directory for abbotweb.log and rotated logs")
	readTimeout := fs.Duration("read-timeout", 10*time.Second, "HTTP read timeout")
	assetsDir := fs.String("assets", "", "directory with extra page assets (images, favicon, whitepaper)")
	if err := fs.Parse(args); err != nil {
		return app.Options{}, err
	}
	return app.Options{
		ConfigPath:  *configPath,
		LogDir:      *logDir,
		ReadTimeout: *readTimeout,
		AssetsDir:   *assetsDir,
	}, nil
}
