// Package main starts the game-session coordinator and handles termination.
//
// The process owns the shared session documents, the roll ingest surface,
// and the one-time reward deposit; presentation stays with the message
// surface collaborator.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/louisbranch/highroll/internal/app/server"
	"github.com/louisbranch/highroll/internal/platform/cmd"
	"github.com/louisbranch/highroll/internal/platform/config"
)

func main() {
	log.SetPrefix("[COORDINATOR] ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.RunWithTelemetry(ctx, cmd.ServiceCoordinator, server.Run); err != nil {
		config.Exitf("failed to serve: %v", err)
	}
}
