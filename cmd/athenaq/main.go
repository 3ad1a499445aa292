package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/athenaq/athenaq/internal/cli/athenaq"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := athenaq.Run(ctx, os.Args[1:], athenaq.Options{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	})
	os.Exit(code)
}
