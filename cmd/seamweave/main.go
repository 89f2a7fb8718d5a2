package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/fkoller/seamweave/internal/cli"
	"github.com/fkoller/seamweave/pkg/pipeline"
)

// Injected via ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cli.SetVersion(version, commit, date)
	if err := cli.Execute(ctx); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, pipeline.ErrStopped) {
			os.Exit(130) // standard shell convention for SIGINT
		}
		os.Exit(1)
	}
}
