package core

type (
	// AccountBalance is the net accumulated value for one account.
	AccountBalance struct {
		Account string
		Balance Money
	}

	// CategoryAmount represents an amount aggregated by category name.
	CategoryAmount struct {
		Name   string
		Amount Money
	}

	// DaySummary lists the expenses of a single day plus their total.
	DaySummary struct {
		Date  Date
		Items []Transaction
		Total Money
	}
)

// AccountBalances computes income minus expense per account. Accounts seen
// in only one direction get the missing side as zero. Order is first-seen,
// so repeated renders of the same ledger are stable. Accounts never seen
// in the ledger do not appear at all.
func AccountBalances(txs []Transaction) []AccountBalance {
	sums := map[string]int64{}
	order := make([]string, 0)
	for _, t := range txs {
		if _, seen := sums[t.Account]; !seen {
			order = append(order, t.Account)
		}
		switch t.Direction {
		case Income:
			sums[t.Account] += t.Amount.Cents
		case Expense:
			sums[t.Account] -= t.Amount.Cents
		}
	}
	out := make([]AccountBalance, 0, len(order))
	for _, name := range order {
		out = append(out, AccountBalance{Account: name, Balance: Money{Cents: sums[name]}})
	}
	return out
}

// DailyExpenses returns the expense records on the reference date and
// their total. An empty ledger or a day with no spending yields an empty
// summary, never an error.
func DailyExpenses(txs []Transaction, ref Date) DaySummary {
	sum := DaySummary{Date: ref}
	for _, t := range txs {
		if t.Direction != Expense || t.Date != ref {
			continue
		}
		sum.Items = append(sum.Items, t)
		sum.Total.Cents += t.Amount.Cents
	}
	return sum
}

// MonthlyByCategory sums expenses per category for the reference date's
// calendar year+month. The comparison is on the structured date fields,
// not the string prefix, so a category containing a month-like substring
// can never leak in. First-seen order.
func MonthlyByCategory(txs []Transaction, ref Date) []CategoryAmount {
	sums := map[string]int64{}
	order := make([]string, 0)
	for _, t := range txs {
		if t.Direction != Expense || !t.Date.SameMonth(ref) {
			continue
		}
		if _, seen := sums[t.Category]; !seen {
			order = append(order, t.Category)
		}
		sums[t.Category] += t.Amount.Cents
	}
	out := make([]CategoryAmount, 0, len(order))
	for _, name := range order {
		out = append(out, CategoryAmount{Name: name, Amount: Money{Cents: sums[name]}})
	}
	return out
}
