package worker

import (
	"context"
	"fmt"
	"log/slog"

	"kakeibo/internal/amqp"
	"kakeibo/internal/core"
	"kakeibo/internal/ledger"
	applog "kakeibo/internal/log"
	"kakeibo/internal/storage"
)

// Storage is the slice of the SQLite repository the worker needs.
type Storage interface {
	GetTransaction(ctx context.Context, id int64) (*storage.StoredTransaction, error)
	GetPendingSync(ctx context.Context, limit int) ([]storage.PendingTransaction, error)
	MarkSynced(ctx context.Context, id int64) error
	MarkSyncError(ctx context.Context, id int64) error
}

// Remote is the sheet side of the mirror: full read, full replace.
type Remote interface {
	ledger.Reader
	ledger.Writer
}

// SyncWorker mirrors locally appended transactions to the remote sheet.
// Delivery is at-least-once: a redelivered message for an already synced
// row is a no-op, but a crash between ReplaceAll and MarkSynced can leave
// one duplicate row in the sheet.
type SyncWorker struct {
	storage   Storage
	remote    Remote
	batchSize int
	logger    *slog.Logger
}

func NewSyncWorker(st Storage, remote Remote, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   st,
		remote:    remote,
		batchSize: batchSize,
		logger:    applog.ForComponent(applog.ComponentWorker),
	}
}

// HandleSyncMessage processes one sync message from the queue.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	w.logger.InfoContext(ctx, "Processing sync message", "id", msg.ID)

	st, err := w.storage.GetTransaction(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}
	if st.SyncStatus == "synced" {
		w.logger.InfoContext(ctx, "Transaction already synced, skipping", "id", msg.ID)
		return nil
	}

	if err := w.mirror(ctx, st.Transaction); err != nil {
		return fmt.Errorf("mirror transaction %d: %w", msg.ID, err)
	}
	if err := w.storage.MarkSynced(ctx, msg.ID); err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	return nil
}

// ProcessPending sweeps rows the queue missed, in batches.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.storage.GetPendingSync(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	w.logger.InfoContext(ctx, "Processing pending sync rows", "count", len(pending))

	for _, p := range pending {
		st, err := w.storage.GetTransaction(ctx, p.ID)
		if err != nil {
			w.logger.ErrorContext(ctx, "Failed to load pending transaction", "id", p.ID, applog.FieldError, err)
			continue
		}
		if err := w.mirror(ctx, st.Transaction); err != nil {
			w.logger.ErrorContext(ctx, "Failed to mirror pending transaction", "id", p.ID, applog.FieldError, err)
			if merr := w.storage.MarkSyncError(ctx, p.ID); merr != nil {
				w.logger.ErrorContext(ctx, "Failed to mark sync error", "id", p.ID, applog.FieldError, merr)
			}
			continue
		}
		if err := w.storage.MarkSynced(ctx, p.ID); err != nil {
			w.logger.ErrorContext(ctx, "Failed to mark synced", "id", p.ID, applog.FieldError, err)
		}
	}
	return nil
}

// StartupSyncCheck drains whatever was pending before the worker started.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Performing startup sync check")
	return w.ProcessPending(ctx)
}

// mirror appends one record to the remote sheet with the same
// read-modify-write the interactive save flow uses.
func (w *SyncWorker) mirror(ctx context.Context, tx core.Transaction) error {
	remote, err := w.remote.ReadAll(ctx)
	if err != nil {
		return fmt.Errorf("read remote ledger: %w", err)
	}
	remote = append(remote, tx)
	if err := w.remote.ReplaceAll(ctx, remote); err != nil {
		return fmt.Errorf("write remote ledger: %w", err)
	}
	return nil
}
