package worker

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Runner is a long-lived loop that returns when ctx ends.
type Runner interface {
	Run(ctx context.Context) error
}

// StartChatListener runs the chat gateway listener inside g. A nil listener
// is skipped; cancellation is a clean stop.
func StartChatListener(ctx context.Context, g *errgroup.Group, listener Runner, logger *zap.Logger) {
	if listener == nil {
		logger.Info("chat gateway listener disabled; inbound thread messages will not be mirrored")
		return
	}
	g.Go(func() error {
		logger.Info("chat gateway listener starting")
		err := listener.Run(ctx)
		if err == nil || errors.Is(err, context.Canceled) {
			logger.Info("chat gateway listener stopped")
			return nil
		}
		return err
	})
}
