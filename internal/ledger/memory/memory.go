package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"kakeibo/internal/core"
)

// Store is an in-memory ledger. It is the default backend and the fake
// adapter the rest of the code is tested against.
type Store struct {
	mu       sync.Mutex
	cats     []string
	accounts []string
	items    []core.Transaction
}

func New(cats, accounts []string) *Store {
	return &Store{cats: dedupe(cats), accounts: dedupe(accounts)}
}

// NewFromFiles seeds the suggestion lists from plain text files under
// base, falling back to the stock lists when the files are missing.
func NewFromFiles(base string) *Store {
	cats := readLines(filepath.Join(base, "seed_categories.txt"))
	accounts := readLines(filepath.Join(base, "seed_accounts.txt"))
	if len(cats) == 0 {
		cats = []string{"dining", "transport", "shopping", "entertainment", "salary", "household", "other"}
	}
	if len(accounts) == 0 {
		accounts = []string{"cash", "bank card", "transit card", "credit card"}
	}
	return New(cats, accounts)
}

// Append stores the transaction and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, tx)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

// ReadAll returns a copy of the collection in insertion order.
func (s *Store) ReadAll(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, len(s.items))
	copy(out, s.items)
	return out, nil
}

// ReplaceAll swaps the whole collection, the single-replace write the
// dashboard's save flow performs.
func (s *Store) ReplaceAll(_ context.Context, txs []core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make([]core.Transaction, len(txs))
	copy(s.items, txs)
	return nil
}

// Suggestions returns category and account name suggestions.
func (s *Store) Suggestions(_ context.Context) ([]string, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cats := append([]string(nil), s.cats...)
	accounts := append([]string(nil), s.accounts...)
	return cats, accounts, nil
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return dedupe(out)
}

func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
