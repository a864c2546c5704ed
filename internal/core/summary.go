package core

import "github.com/shopspring/decimal"

// Summary totals a transaction list by type.
type Summary struct {
	Income  Amount
	Expense Amount
	Balance Amount
	Count   int
}

// Summarize adds up income and expenses. Transactions of an unknown type are
// counted but not added to either side.
func Summarize(txs []Transaction) Summary {
	income, expense := decimal.Zero, decimal.Zero
	for _, tx := range txs {
		switch tx.Type {
		case Income:
			income = income.Add(tx.Amount.Decimal)
		case Expense:
			expense = expense.Add(tx.Amount.Decimal)
		}
	}
	return Summary{
		Income:  Amount{Decimal: income},
		Expense: Amount{Decimal: expense},
		Balance: Amount{Decimal: income.Sub(expense)},
		Count:   len(txs),
	}
}
