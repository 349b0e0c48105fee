package worker

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/storage"
)

type fakeSource struct {
	err error
}

func (f *fakeSource) ConsumeTransactionSync(ctx context.Context, prefetch int, handler func(*amqp.TransactionSyncMessage) error) error {
	return f.err
}

type recordingAppender struct {
	rows []core.TransactionDetail
}

func (a *recordingAppender) AppendTransaction(ctx context.Context, d core.TransactionDetail) error {
	a.rows = append(a.rows, d)
	return nil
}

func newTestRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"), 2)
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestHandleSyncMessage_AppendsJoinedRow(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	account, err := repo.CreateAccount(ctx, core.Account{Name: "Checking", Type: "asset", Currency: "EUR"})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	id, err := repo.CreateTransaction(ctx, core.Transaction{AccountID: account.ID, Date: "2024-03-05", AmountCents: -1250})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	appender := &recordingAppender{}
	w := NewSyncWorker(repo, appender, &fakeSource{}, 10, time.Minute)

	if err := w.HandleSyncMessage(ctx, amqp.NewTransactionSyncMessage(id, 1)); err != nil {
		t.Fatalf("HandleSyncMessage: %v", err)
	}
	if len(appender.rows) != 1 {
		t.Fatalf("got %d appended rows, want 1", len(appender.rows))
	}
	if appender.rows[0].AccountName != "Checking" || appender.rows[0].AmountCents != -1250 {
		t.Errorf("unexpected appended row: %+v", appender.rows[0])
	}
}

func TestHandleSyncMessage_UnknownTransaction(t *testing.T) {
	repo := newTestRepo(t)
	w := NewSyncWorker(repo, &recordingAppender{}, &fakeSource{}, 10, time.Minute)

	err := w.HandleSyncMessage(context.Background(), amqp.NewTransactionSyncMessage(999, 1))
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("error = %v, want %v", err, core.ErrNotFound)
	}
}

func TestRun_ToleratesWrappedCancellation(t *testing.T) {
	repo := newTestRepo(t)
	source := &fakeSource{err: fmt.Errorf("consume: %w", context.Canceled)}
	w := NewSyncWorker(repo, &recordingAppender{}, source, 10, time.Minute)

	if err := w.Run(context.Background()); err != nil {
		t.Fatalf("Run should swallow wrapped cancellation, got %v", err)
	}
}

func TestRun_SurfacesConsumerFailure(t *testing.T) {
	repo := newTestRepo(t)
	source := &fakeSource{err: errors.New("channel closed")}
	w := NewSyncWorker(repo, &recordingAppender{}, source, 10, time.Minute)

	if err := w.Run(context.Background()); err == nil {
		t.Fatal("expected the consumer failure to surface")
	}
}
