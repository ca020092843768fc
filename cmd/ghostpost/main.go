// Command ghostpost is the client-side tool for the GhostPost continuation
// protocol: it enrolls an identity, proves continuations locally and
// finalizes them against a server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ghostpost/internal/platform/logger"
)

func main() {
	log := logger.New(os.Stderr, os.Getenv("GHOSTPOST_LOG_LEVEL"), "text")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd(os.Stdout, log).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "ghostpost:", err)
		os.Exit(1)
	}
}
