package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"kakeibo/internal/core"
	"kakeibo/internal/ledger"
	applog "kakeibo/internal/log"
)

// SyncPublisher notifies the sync worker about a locally appended row.
type SyncPublisher interface {
	PublishTransactionSync(ctx context.Context, id int64) error
}

// LedgerService orchestrates the read and save flows on top of whichever
// store backs the dashboard.
//
// Read policy: a store that cannot be reached yields an empty ledger plus
// a logged warning, never a failed render. Write failures always surface;
// the record is not considered saved until the store accepts it.
type LedgerService struct {
	store     ledger.Store
	publisher SyncPublisher
	logger    *slog.Logger
}

func NewLedgerService(store ledger.Store, publisher SyncPublisher) *LedgerService {
	return &LedgerService{
		store:     store,
		publisher: publisher,
		logger:    applog.ForComponent(applog.ComponentLedger),
	}
}

// ReadLedger returns the full collection, substituting an empty one when
// the store read fails. The bool reports whether the read degraded so the
// caller can render a warning.
func (s *LedgerService) ReadLedger(ctx context.Context) ([]core.Transaction, bool) {
	txs, err := s.store.ReadAll(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Ledger read failed, rendering empty collection", applog.FieldError, err)
		return nil, true
	}
	return txs, false
}

// AppendTransaction validates and appends one record, then publishes a
// best-effort sync message when a publisher is configured. A publish
// failure does not fail the append; the periodic sweep picks the row up.
func (s *LedgerService) AppendTransaction(ctx context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", fmt.Errorf("validate transaction: %w", err)
	}

	ref, err := s.store.Append(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("save transaction: %w", err)
	}

	if s.publisher != nil {
		id, perr := strconv.ParseInt(ref, 10, 64)
		if perr != nil {
			s.logger.WarnContext(ctx, "Row reference is not a sync ID, skipping publish", applog.FieldLedgerRef, ref)
			return ref, nil
		}
		if perr := s.publisher.PublishTransactionSync(ctx, id); perr != nil {
			s.logger.ErrorContext(ctx, "Failed to publish sync message", "id", id, applog.FieldError, perr)
		}
	}

	return ref, nil
}

// Suggestions returns the form's category and account lists, degrading to
// empty lists with a warning when the store is unreachable.
func (s *LedgerService) Suggestions(ctx context.Context) ([]string, []string) {
	cats, accounts, err := s.store.Suggestions(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Suggestion read failed", applog.FieldError, err)
		return nil, nil
	}
	return cats, accounts
}

// Close releases store and publisher resources when they support it.
func (s *LedgerService) Close() error {
	var errs []error
	if c, ok := s.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}
	return nil
}
