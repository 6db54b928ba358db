package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"kakeibo/internal/core"
	applog "kakeibo/internal/log"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the local-first transaction store. Appends land here
// immediately; a worker mirrors pending rows to the remote sheet later.
type SQLiteRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// StoredTransaction is a transaction row with its sync bookkeeping.
type StoredTransaction struct {
	ID          int64
	Transaction core.Transaction
	SyncStatus  string
	CreatedAt   time.Time
}

// PendingTransaction carries the minimal data a sync queue message needs.
type PendingTransaction struct {
	ID        int64
	CreatedAt time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := migrateSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:     db,
		logger: applog.ForComponent(applog.ComponentStorage),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Append implements ledger.Appender.
func (r *SQLiteRepository) Append(ctx context.Context, tx core.Transaction) (string, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (date, direction, category, amount_cents, account)
		 VALUES (?, ?, ?, ?, ?)`,
		tx.Date.String(), string(tx.Direction), tx.Category, tx.Amount.Cents, tx.Account)
	if err != nil {
		return "", fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("last insert id: %w", err)
	}

	r.logger.InfoContext(ctx, "Transaction saved to SQLite",
		"id", id,
		applog.FieldDate, tx.Date.String(),
		applog.FieldDirection, string(tx.Direction),
		applog.FieldAmountCents, tx.Amount.Cents,
		applog.FieldAccount, tx.Account)

	return strconv.FormatInt(id, 10), nil
}

// ReadAll implements ledger.Reader; rows come back in insertion order.
func (r *SQLiteRepository) ReadAll(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT date, direction, category, amount_cents, account
		 FROM transactions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// ReplaceAll implements ledger.Writer: the whole table is swapped in one
// database transaction.
func (r *SQLiteRepository) ReplaceAll(ctx context.Context, txs []core.Transaction) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer dbTx.Rollback()

	if _, err := dbTx.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}
	for _, tx := range txs {
		if _, err := dbTx.ExecContext(ctx,
			`INSERT INTO transactions (date, direction, category, amount_cents, account)
			 VALUES (?, ?, ?, ?, ?)`,
			tx.Date.String(), string(tx.Direction), tx.Category, tx.Amount.Cents, tx.Account); err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
	}
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

// Suggestions implements ledger.SuggestionReader with the names already in
// the table; empty lists are fine, callers merge their own defaults.
func (r *SQLiteRepository) Suggestions(ctx context.Context) ([]string, []string, error) {
	cats, err := r.distinct(ctx, `SELECT DISTINCT category FROM transactions ORDER BY category`)
	if err != nil {
		return nil, nil, fmt.Errorf("distinct categories: %w", err)
	}
	accounts, err := r.distinct(ctx, `SELECT DISTINCT account FROM transactions ORDER BY account`)
	if err != nil {
		return nil, nil, fmt.Errorf("distinct accounts: %w", err)
	}
	return cats, accounts, nil
}

func (r *SQLiteRepository) distinct(ctx context.Context, query string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// GetTransaction retrieves a single row by ID for sync processing.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (*StoredTransaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, date, direction, category, amount_cents, account, sync_status, created_at
		 FROM transactions WHERE id = ?`, id)

	var st StoredTransaction
	var date, direction string
	if err := row.Scan(&st.ID, &date, &direction, &st.Transaction.Category,
		&st.Transaction.Amount.Cents, &st.Transaction.Account, &st.SyncStatus, &st.CreatedAt); err != nil {
		return nil, fmt.Errorf("get transaction %d: %w", id, err)
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("transaction %d has unparseable date %q: %w", id, date, err)
	}
	st.Transaction.Date = d
	st.Transaction.Direction = core.Direction(direction)
	return &st, nil
}

// GetPendingSync returns rows not yet mirrored to the remote sheet.
func (r *SQLiteRepository) GetPendingSync(ctx context.Context, limit int) ([]PendingTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, created_at FROM transactions
		 WHERE sync_status = 'pending' ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("select pending sync: %w", err)
	}
	defer rows.Close()

	var out []PendingTransaction
	for rows.Next() {
		var p PendingTransaction
		if err := rows.Scan(&p.ID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending sync: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkSynced marks a row as successfully mirrored.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = 'synced' WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	r.logger.InfoContext(ctx, "Transaction marked as synced", "id", id)
	return nil
}

// MarkSyncError marks a row whose mirror attempt failed.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = 'error' WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark sync error: %w", err)
	}
	r.logger.WarnContext(ctx, "Transaction marked with sync error", "id", id)
	return nil
}

func scanTransaction(rows *sql.Rows) (core.Transaction, error) {
	var tx core.Transaction
	var date, direction string
	if err := rows.Scan(&date, &direction, &tx.Category, &tx.Amount.Cents, &tx.Account); err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("stored date %q: %w", date, err)
	}
	tx.Date = d
	tx.Direction = core.Direction(direction)
	return tx, nil
}
