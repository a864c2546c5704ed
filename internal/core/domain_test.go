package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseTransactionType(t *testing.T) {
	for in, want := range map[string]TransactionType{"income": Income, " Expense ": Expense} {
		got, err := ParseTransactionType(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := ParseTransactionType("transfer")
	require.ErrorIs(t, err, ErrInvalidType)
}

func TestTransactionDecode(t *testing.T) {
	body := `[
		{"id": 7, "amount": 25.5, "type": "expense", "note": "coffee", "date": "2024-01-15"},
		{"id": "a1", "amount": "100", "type": "income", "date": "2024-01-16"}
	]`
	var txs []Transaction
	require.NoError(t, json.Unmarshal([]byte(body), &txs))
	require.Len(t, txs, 2)
	require.Equal(t, ID("7"), txs[0].ID)
	require.Equal(t, "25.50", txs[0].Amount.Fixed())
	require.True(t, txs[0].HasNote())
	require.Equal(t, ID("a1"), txs[1].ID)
	require.Equal(t, "100.00", txs[1].Amount.Fixed())
	require.False(t, txs[1].HasNote())
}

func TestValidCandidateEncodesAsPostBody(t *testing.T) {
	vc, err := Validate(Candidate{Amount: "25.50", Type: Expense, Note: "coffee", Date: "2024-01-15"})
	require.NoError(t, err)
	b, err := json.Marshal(vc)
	require.NoError(t, err)
	require.JSONEq(t, `{"amount":25.5,"type":"expense","note":"coffee","date":"2024-01-15"}`, string(b))
}

func TestDate(t *testing.T) {
	require.Equal(t, Date("2024-01-15"), DateOf(time.Date(2024, 1, 15, 23, 59, 0, 0, time.UTC)))
	require.Equal(t, "Jan 15, 2024", Date("2024-01-15").Display())
	require.Equal(t, "yesterday", Date("yesterday").Display())
	_, err := Date("2024-13-01").Time()
	require.ErrorIs(t, err, ErrInvalidDate)
}

func TestSummarize(t *testing.T) {
	s := Summarize([]Transaction{
		{ID: "1", Amount: MustAmount("100"), Type: Income},
		{ID: "2", Amount: MustAmount("25.50"), Type: Expense},
		{ID: "3", Amount: MustAmount("4.50"), Type: Expense},
	})
	require.Equal(t, 3, s.Count)
	require.Equal(t, "100.00", s.Income.Fixed())
	require.Equal(t, "30.00", s.Expense.Fixed())
	require.Equal(t, "70.00", s.Balance.Fixed())
}
