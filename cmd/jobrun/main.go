package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"jobrun/internal/cli"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	root := cli.NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "jobrun:", err)
		os.Exit(1)
	}
}
