// Package terminal is the text front end: it renders controller state and
// provides the navigation and confirmation capabilities on a terminal.
package terminal

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"financeflow/internal/log"
	"financeflow/internal/ports"
)

var (
	_ ports.Navigator = (*Navigator)(nil)
	_ ports.Confirmer = (*Confirmer)(nil)
)

// Navigator records the last route and prints a hint for it.
type Navigator struct {
	out    io.Writer
	logger *log.Logger

	mu      sync.Mutex
	current string
}

func NewNavigator(out io.Writer, logger *log.Logger) *Navigator {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Navigator{out: out, logger: logger.WithComponent(log.ComponentCLI)}
}

func (n *Navigator) Navigate(path string) {
	n.mu.Lock()
	n.current = path
	n.mu.Unlock()

	n.logger.Debug("Navigate", log.FieldOperation, log.OpNavigate, log.FieldRoute, path)
	switch path {
	case ports.EntryPath:
		fmt.Fprintln(n.out, "Signed out. Run `financeflow login <token>` to sign in again.")
	case ports.DashboardPath:
		fmt.Fprintln(n.out, "Saved. Run `financeflow list` to see your transactions.")
	}
}

// Current returns the last route navigated to, or "" if none.
func (n *Navigator) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Confirmer asks yes/no questions on a line-oriented terminal. Anything but
// "y" or "yes" is a no, including end of input.
type Confirmer struct {
	in        *bufio.Reader
	out       io.Writer
	assumeYes bool
}

func NewConfirmer(in io.Reader, out io.Writer, assumeYes bool) *Confirmer {
	return &Confirmer{in: bufio.NewReader(in), out: out, assumeYes: assumeYes}
}

func (c *Confirmer) Confirm(message string) bool {
	if c.assumeYes {
		return true
	}
	fmt.Fprintf(c.out, "%s [y/N]: ", message)
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(c.out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
