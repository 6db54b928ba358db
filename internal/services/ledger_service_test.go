package services

import (
	"context"
	"errors"
	"testing"

	"kakeibo/internal/core"
	"kakeibo/internal/ledger/memory"
)

type failingStore struct{}

func (failingStore) ReadAll(context.Context) ([]core.Transaction, error) {
	return nil, errors.New("connection refused")
}
func (failingStore) ReplaceAll(context.Context, []core.Transaction) error {
	return errors.New("connection refused")
}
func (failingStore) Append(context.Context, core.Transaction) (string, error) {
	return "", errors.New("connection refused")
}
func (failingStore) Suggestions(context.Context) ([]string, []string, error) {
	return nil, nil, errors.New("connection refused")
}

type recordingPublisher struct {
	ids []int64
	err error
}

func (p *recordingPublisher) PublishTransactionSync(_ context.Context, id int64) error {
	p.ids = append(p.ids, id)
	return p.err
}

func validTx() core.Transaction {
	return core.Transaction{
		Date:      core.NewDate(2024, 5, 1),
		Direction: core.Expense,
		Category:  "dining",
		Amount:    core.Money{Cents: 100},
		Account:   "cash",
	}
}

func TestReadLedgerSubstitutesEmptyOnFailure(t *testing.T) {
	svc := NewLedgerService(failingStore{}, nil)
	txs, degraded := svc.ReadLedger(context.Background())
	if len(txs) != 0 {
		t.Fatalf("expected empty ledger, got %v", txs)
	}
	if !degraded {
		t.Fatalf("expected degraded flag on read failure")
	}
}

func TestReadLedgerHealthy(t *testing.T) {
	store := memory.New(nil, nil)
	svc := NewLedgerService(store, nil)
	if _, err := svc.AppendTransaction(context.Background(), validTx()); err != nil {
		t.Fatalf("append: %v", err)
	}
	txs, degraded := svc.ReadLedger(context.Background())
	if degraded || len(txs) != 1 {
		t.Fatalf("unexpected read: degraded=%v txs=%v", degraded, txs)
	}
}

func TestAppendRejectsInvalid(t *testing.T) {
	svc := NewLedgerService(memory.New(nil, nil), nil)
	if _, err := svc.AppendTransaction(context.Background(), core.Transaction{}); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestAppendSurfacesWriteFailure(t *testing.T) {
	svc := NewLedgerService(failingStore{}, nil)
	if _, err := svc.AppendTransaction(context.Background(), validTx()); err == nil {
		t.Fatalf("write failure must surface to the caller")
	}
}

func TestAppendPublishFailureDoesNotFailSave(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := NewLedgerService(memory.New(nil, nil), pub)
	// Memory refs are "mem:N", so publishing is skipped without error.
	ref, err := svc.AppendTransaction(context.Background(), validTx())
	if err != nil || ref == "" {
		t.Fatalf("append should succeed despite publisher: ref=%q err=%v", ref, err)
	}
}

type numericRefStore struct {
	*memory.Store
	n int64
}

func (s *numericRefStore) Append(ctx context.Context, tx core.Transaction) (string, error) {
	if _, err := s.Store.Append(ctx, tx); err != nil {
		return "", err
	}
	s.n++
	return "7", nil
}

func TestAppendPublishesSyncMessage(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewLedgerService(&numericRefStore{Store: memory.New(nil, nil)}, pub)
	if _, err := svc.AppendTransaction(context.Background(), validTx()); err != nil {
		t.Fatalf("append: %v", err)
	}
	if len(pub.ids) != 1 || pub.ids[0] != 7 {
		t.Fatalf("expected sync publish for row 7, got %v", pub.ids)
	}
}

func TestSuggestionsDegradeToEmpty(t *testing.T) {
	svc := NewLedgerService(failingStore{}, nil)
	cats, accounts := svc.Suggestions(context.Background())
	if cats != nil || accounts != nil {
		t.Fatalf("expected empty suggestions on failure")
	}
}
