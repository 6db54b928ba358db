package worker

import (
	"context"
	"errors"
	"testing"

	"kakeibo/internal/amqp"
	"kakeibo/internal/core"
	"kakeibo/internal/ledger/memory"
	"kakeibo/internal/storage"
)

type fakeStorage struct {
	rows    map[int64]*storage.StoredTransaction
	pending []int64
	synced  []int64
	errored []int64
}

func (f *fakeStorage) GetTransaction(_ context.Context, id int64) (*storage.StoredTransaction, error) {
	st, ok := f.rows[id]
	if !ok {
		return nil, errors.New("no such row")
	}
	return st, nil
}

func (f *fakeStorage) GetPendingSync(_ context.Context, limit int) ([]storage.PendingTransaction, error) {
	out := make([]storage.PendingTransaction, 0, len(f.pending))
	for _, id := range f.pending {
		if len(out) == limit {
			break
		}
		out = append(out, storage.PendingTransaction{ID: id})
	}
	return out, nil
}

func (f *fakeStorage) MarkSynced(_ context.Context, id int64) error {
	f.synced = append(f.synced, id)
	return nil
}

func (f *fakeStorage) MarkSyncError(_ context.Context, id int64) error {
	f.errored = append(f.errored, id)
	return nil
}

type failingRemote struct{}

func (failingRemote) ReadAll(context.Context) ([]core.Transaction, error) {
	return nil, errors.New("connection refused")
}
func (failingRemote) ReplaceAll(context.Context, []core.Transaction) error {
	return errors.New("connection refused")
}

func pendingRow(id int64) *storage.StoredTransaction {
	return &storage.StoredTransaction{
		ID:         id,
		SyncStatus: "pending",
		Transaction: core.Transaction{
			Date:      core.NewDate(2024, 5, 1),
			Direction: core.Expense,
			Category:  "dining",
			Amount:    core.Money{Cents: 100},
			Account:   "cash",
		},
	}
}

func TestHandleSyncMessageMirrorsRow(t *testing.T) {
	st := &fakeStorage{rows: map[int64]*storage.StoredTransaction{1: pendingRow(1)}}
	remote := memory.New(nil, nil)
	w := NewSyncWorker(st, remote, 10)

	if err := w.HandleSyncMessage(context.Background(), &amqp.TransactionSyncMessage{ID: 1}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	txs, _ := remote.ReadAll(context.Background())
	if len(txs) != 1 || txs[0].Category != "dining" {
		t.Fatalf("row not mirrored: %v", txs)
	}
	if len(st.synced) != 1 || st.synced[0] != 1 {
		t.Fatalf("row not marked synced: %v", st.synced)
	}
}

func TestHandleSyncMessageSkipsAlreadySynced(t *testing.T) {
	row := pendingRow(2)
	row.SyncStatus = "synced"
	st := &fakeStorage{rows: map[int64]*storage.StoredTransaction{2: row}}
	remote := memory.New(nil, nil)
	w := NewSyncWorker(st, remote, 10)

	if err := w.HandleSyncMessage(context.Background(), &amqp.TransactionSyncMessage{ID: 2}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	txs, _ := remote.ReadAll(context.Background())
	if len(txs) != 0 {
		t.Fatalf("already synced row must not be mirrored again")
	}
}

func TestHandleSyncMessageRemoteFailure(t *testing.T) {
	st := &fakeStorage{rows: map[int64]*storage.StoredTransaction{1: pendingRow(1)}}
	w := NewSyncWorker(st, failingRemote{}, 10)

	if err := w.HandleSyncMessage(context.Background(), &amqp.TransactionSyncMessage{ID: 1}); err == nil {
		t.Fatalf("expected error so the message is requeued")
	}
	if len(st.synced) != 0 {
		t.Fatalf("must not mark synced on failure")
	}
}

func TestProcessPendingMarksOutcomes(t *testing.T) {
	st := &fakeStorage{
		rows:    map[int64]*storage.StoredTransaction{1: pendingRow(1), 2: pendingRow(2)},
		pending: []int64{1, 2},
	}
	remote := memory.New(nil, nil)
	w := NewSyncWorker(st, remote, 10)

	if err := w.ProcessPending(context.Background()); err != nil {
		t.Fatalf("process pending: %v", err)
	}
	if len(st.synced) != 2 {
		t.Fatalf("expected both rows synced, got %v", st.synced)
	}

	// Failing remote marks rows errored instead.
	st2 := &fakeStorage{
		rows:    map[int64]*storage.StoredTransaction{3: pendingRow(3)},
		pending: []int64{3},
	}
	w2 := NewSyncWorker(st2, failingRemote{}, 10)
	if err := w2.ProcessPending(context.Background()); err != nil {
		t.Fatalf("process pending: %v", err)
	}
	if len(st2.errored) != 1 || st2.errored[0] != 3 {
		t.Fatalf("expected row 3 marked errored, got %v", st2.errored)
	}
}

func TestProcessPendingRespectsBatchSize(t *testing.T) {
	st := &fakeStorage{
		rows:    map[int64]*storage.StoredTransaction{1: pendingRow(1), 2: pendingRow(2)},
		pending: []int64{1, 2},
	}
	w := NewSyncWorker(st, memory.New(nil, nil), 1)
	if err := w.ProcessPending(context.Background()); err != nil {
		t.Fatalf("process pending: %v", err)
	}
	if len(st.synced) != 1 {
		t.Fatalf("batch size 1 must sync one row per sweep, got %v", st.synced)
	}
}
