package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/semmy-space/tasq/internal/cli"
)

var (
	version = "dev"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	code := cli.Execute(ctx, os.Args[1:], cli.Options{
		Version: version,
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	})

	stop()
	os.Exit(code)
}
