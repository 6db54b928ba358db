package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Expense Direction = "expense"
	Income  Direction = "income"
)

type (
	// Direction marks a transaction as an inflow or an outflow.
	// The amount always carries a non-negative magnitude; the direction
	// carries the sign.
	Direction string

	// Date is a calendar date parsed once from its ISO-8601 form.
	// Keeping the parts structured makes month grouping a field
	// comparison instead of a string-prefix match.
	Date struct {
		Year  int
		Month int // 1-12
		Day   int
	}

	Money struct {
		Cents int64
	}

	// Transaction is one immutable ledger entry. The ledger itself is an
	// append-only, insertion-ordered collection of these.
	Transaction struct {
		Date      Date
		Direction Direction
		Category  string
		Amount    Money
		Account   string
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidDirection = errors.New("invalid direction")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyAccount     = errors.New("empty account")
)

const dateLayout = "2006-01-02"

// ParseDate parses an ISO-8601 YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}, nil
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// String returns the ISO-8601 form, the format persisted in the store.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// SameMonth reports whether two dates fall in the same calendar year+month.
func (d Date) SameMonth(o Date) bool {
	return d.Year == o.Year && d.Month == o.Month
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	if d.Month < 1 || d.Month > 12 {
		return ErrInvalidDate
	}
	if d.Day < 1 || d.Day > 31 {
		return ErrInvalidDate
	}
	return nil
}

func (dir Direction) Validate() error {
	switch dir {
	case Expense, Income:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidDirection, string(dir))
	}
}

// Units returns the amount in currency units for display purposes.
// Use cents for calculations.
func (m Money) Units() float64 {
	return float64(m.Cents) / 100.0
}

// Validate checks the record at the form boundary. Stored rows are read
// back leniently (see NormalizeAmount); this is only for new entries.
func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if err := t.Direction.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if t.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.Account) == "" {
		return ErrEmptyAccount
	}
	return nil
}
