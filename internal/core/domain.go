package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// DateLayout is the wire form of a transaction date.
const DateLayout = "2006-01-02"

type (
	TransactionType string

	// ID is the server-assigned identifier of a transaction. Servers that use
	// numeric keys are accepted; the number is kept in its decimal text form.
	ID string

	// Date is a calendar date in YYYY-MM-DD form.
	Date string

	Transaction struct {
		ID     ID              `json:"id"`
		Amount Amount          `json:"amount"`
		Type   TransactionType `json:"type"`
		Note   string          `json:"note"`
		Date   Date            `json:"date"`
	}
)

var (
	ErrInvalidType = errors.New("invalid transaction type")
	ErrInvalidDate = errors.New("invalid date")
)

// ParseTransactionType accepts "income" or "expense", case-insensitively.
func ParseTransactionType(s string) (TransactionType, error) {
	switch t := TransactionType(strings.ToLower(strings.TrimSpace(s))); t {
	case Income, Expense:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
}

func (t TransactionType) IsValid() bool {
	return t == Income || t == Expense
}

// Label is the human readable name used by the dashboard.
func (t TransactionType) Label() string {
	switch t {
	case Income:
		return "Income"
	case Expense:
		return "Expense"
	default:
		return string(t)
	}
}

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("transaction id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	return Date(t.Format(DateLayout))
}

// Time parses the date. Only YYYY-MM-DD is accepted.
func (d Date) Time() (time.Time, error) {
	t, err := time.Parse(DateLayout, string(d))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, string(d))
	}
	return t, nil
}

// Display formats the date as "Jan 15, 2024". Dates the server sends in
// another shape are shown as they are.
func (d Date) Display() string {
	t, err := d.Time()
	if err != nil {
		return string(d)
	}
	return t.Format("Jan 2, 2006")
}

// HasNote reports whether the note carries any text.
func (tx Transaction) HasNote() bool {
	return strings.TrimSpace(tx.Note) != ""
}
