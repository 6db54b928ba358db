package google

import (
	"fmt"
	"strings"

	"kakeibo/internal/core"
)

var stockCategories = []string{"dining", "transport", "shopping", "entertainment", "salary", "household", "other"}
var stockAccounts = []string{"cash", "bank card", "transit card", "credit card"}

func headerRow() []any {
	return []any{"date", "type", "category", "amount", "account"}
}

func rowValues(tx core.Transaction) []any {
	return []any{
		tx.Date.String(),
		string(tx.Direction),
		tx.Category,
		tx.Amount.Units(),
		tx.Account,
	}
}

// parseRows turns raw sheet values into transactions. Rows that cannot
// carry a record at all (no parseable date or direction, the header row
// included) are skipped; a malformed amount cell only zeroes the amount,
// never drops the row.
func parseRows(rows [][]any) []core.Transaction {
	var out []core.Transaction
	for _, row := range rows {
		tx, ok := parseRow(row)
		if !ok {
			continue
		}
		out = append(out, tx)
	}
	return out
}

func parseRow(row []any) (core.Transaction, bool) {
	cols := toStrings(row)
	if len(cols) < 5 {
		return core.Transaction{}, false
	}
	date, err := core.ParseDate(cols[0])
	if err != nil {
		return core.Transaction{}, false
	}
	dir, ok := parseDirection(cols[1])
	if !ok {
		return core.Transaction{}, false
	}
	return core.Transaction{
		Date:      date,
		Direction: dir,
		Category:  cols[2],
		Amount:    core.NormalizeAmount(cols[3]),
		Account:   cols[4],
	}, true
}

func parseDirection(s string) (core.Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(core.Expense):
		return core.Expense, true
	case string(core.Income):
		return core.Income, true
	default:
		return "", false
	}
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func mergeSuggestions(txs []core.Transaction) ([]string, []string, error) {
	cats := append([]string(nil), stockCategories...)
	accounts := append([]string(nil), stockAccounts...)
	seenCat := map[string]struct{}{}
	for _, c := range cats {
		seenCat[c] = struct{}{}
	}
	seenAcc := map[string]struct{}{}
	for _, a := range accounts {
		seenAcc[a] = struct{}{}
	}
	for _, tx := range txs {
		if c := strings.TrimSpace(tx.Category); c != "" {
			if _, ok := seenCat[c]; !ok {
				seenCat[c] = struct{}{}
				cats = append(cats, c)
			}
		}
		if a := strings.TrimSpace(tx.Account); a != "" {
			if _, ok := seenAcc[a]; !ok {
				seenAcc[a] = struct{}{}
				accounts = append(accounts, a)
			}
		}
	}
	return cats, accounts, nil
}
