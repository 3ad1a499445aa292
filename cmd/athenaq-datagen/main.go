package main

import (
	"context"
	"os"

	"github.com/athenaq/athenaq/internal/cli/datagen"
)

func main() {
	code := datagen.Run(context.Background(), os.Args[1:], datagen.Options{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	})
	os.Exit(code)
}
