package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/salesrecon/backend/internal/domain/shared"
	"github.com/salesrecon/backend/internal/infrastructure/config"
)

// exitRunInProgress lets schedulers tell a skipped run from a failed one
const exitRunInProgress = 3

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(config.Load).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		if errors.Is(err, shared.ErrRunInProgress) {
			os.Exit(exitRunInProgress)
		}
		os.Exit(1)
	}
}
