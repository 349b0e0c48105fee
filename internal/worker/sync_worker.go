// Package worker syncs created transactions from SQLite to the export
// target by consuming the AMQP event stream.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"bilancio/internal/amqp"
	"bilancio/internal/sheets"
	"bilancio/internal/storage"
)

// syncSource is the consume side of the AMQP client.
type syncSource interface {
	ConsumeTransactionSync(ctx context.Context, prefetch int, handler func(*amqp.TransactionSyncMessage) error) error
}

// SyncWorker consumes transaction sync messages and appends the joined
// row to the export target.
type SyncWorker struct {
	storage   *storage.SQLiteRepository
	appender  sheets.RowAppender
	client    syncSource
	batchSize int
	interval  time.Duration

	processed atomic.Int64
	failed    atomic.Int64
}

func NewSyncWorker(storage *storage.SQLiteRepository, appender sheets.RowAppender, client syncSource, batchSize int, interval time.Duration) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		appender:  appender,
		client:    client,
		batchSize: batchSize,
		interval:  interval,
	}
}

// HandleSyncMessage processes a single transaction sync message: load the
// joined row by id, append it to the export target. Returning an error
// makes the consumer requeue the delivery.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	detail, err := w.storage.GetTransactionDetail(ctx, msg.ID)
	if err != nil {
		w.failed.Add(1)
		return fmt.Errorf("load transaction %d: %w", msg.ID, err)
	}

	if w.appender == nil {
		slog.WarnContext(ctx, "No export target configured, dropping sync message", "id", msg.ID)
		return nil
	}

	if err := w.appender.AppendTransaction(ctx, detail); err != nil {
		w.failed.Add(1)
		return fmt.Errorf("export transaction %d: %w", msg.ID, err)
	}

	w.processed.Add(1)
	return nil
}

// Run consumes sync messages until the context is cancelled, reporting
// progress counters on the configured interval.
func (w *SyncWorker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return w.client.ConsumeTransactionSync(ctx, w.batchSize, func(msg *amqp.TransactionSyncMessage) error {
			return w.HandleSyncMessage(ctx, msg)
		})
	})

	g.Go(func() error {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				slog.InfoContext(ctx, "Sync worker stats",
					"processed", w.processed.Load(),
					"failed", w.failed.Load())
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
