package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"curator/internal/cli"
)

var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, version, os.Args[1:])
	cancel()
	os.Exit(code)
}
