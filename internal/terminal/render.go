package terminal

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"financeflow/internal/controllers"
	"financeflow/internal/core"
)

const emptyLedger = "No transactions yet. Create your first one!"

// RenderDashboard writes the dashboard view for st.
func RenderDashboard(w io.Writer, st controllers.DashboardState) error {
	if st.Phase == controllers.PhaseLoading {
		_, err := fmt.Fprintln(w, "Loading...")
		return err
	}

	var b strings.Builder
	if st.Error != "" {
		fmt.Fprintf(&b, "Error: %s\n\n", st.Error)
	}

	if len(st.Transactions) == 0 {
		b.WriteString(emptyLedger + "\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tAMOUNT\tNOTE\tDATE\t")
	for _, tx := range st.Transactions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t", tx.ID, tx.Type.Label(), tx.Amount.Fixed(), noteOrDash(tx), tx.Date.Display())
		if slices.Contains(st.PendingDeletes, tx.ID) {
			fmt.Fprint(tw, "deleting...")
		}
		fmt.Fprintln(tw)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	s := st.Summary
	fmt.Fprintf(&b, "\n%d transactions  income %s  expense %s  balance %s\n",
		s.Count, s.Income.Fixed(), s.Expense.Fixed(), s.Balance.Fixed())

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderCreation writes the outcome of a creation attempt.
func RenderCreation(w io.Writer, st controllers.CreationState) error {
	if st.Error == "" {
		return nil
	}
	_, err := fmt.Fprintf(w, "Error: %s\n", st.Error)
	return err
}

func noteOrDash(tx core.Transaction) string {
	if tx.HasNote() {
		return tx.Note
	}
	return "-"
}
