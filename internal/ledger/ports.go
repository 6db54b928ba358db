package ledger

import (
	"context"

	"kakeibo/internal/core"
)

// Ports for the backing transaction stores.
//
// The persisted layout is one flat table with a header row and five
// columns: date, type, category, amount, account. ReplaceAll swaps the
// whole table in one write; there is no versioning or conflict detection,
// so two concurrent read-modify-write sessions race and the last writer
// wins. Callers that need stronger guarantees must add optimistic
// versioning on top of these ports.
type (
	// Reader returns the full current collection in insertion order.
	Reader interface {
		ReadAll(ctx context.Context) ([]core.Transaction, error)
	}

	// Writer replaces the entire persisted collection.
	Writer interface {
		ReplaceAll(ctx context.Context, txs []core.Transaction) error
	}

	// Appender adds one record to the end of the collection and returns
	// a store-specific row reference.
	Appender interface {
		Append(ctx context.Context, tx core.Transaction) (ref string, err error)
	}

	// SuggestionReader lists the category and account names offered by
	// the entry form. Both are open enums; the lists are suggestions,
	// not constraints.
	SuggestionReader interface {
		Suggestions(ctx context.Context) (categories []string, accounts []string, err error)
	}
)

// Store bundles the full contract a dashboard backend provides.
type Store interface {
	Reader
	Writer
	Appender
	SuggestionReader
}
