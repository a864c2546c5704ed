package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"financeflow/internal/api"
	"financeflow/internal/core"
	"financeflow/internal/log"
	"financeflow/internal/ports"
	"financeflow/internal/session"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

// fakeLedger is an in-memory stand-in for the transactions API.
type fakeLedger struct {
	mu  sync.Mutex
	txs []core.Transaction

	listStatus   int
	createStatus int
	deleteStatus int
	errorBody    string

	listCalls   int
	createCalls int
	deleteCalls int
	lastCreate  []byte
	nextID      int

	createGate chan struct{}
	deleteGate chan struct{}
}

func (f *fakeLedger) router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/transactions", f.list).Methods(http.MethodGet)
	r.HandleFunc("/api/transactions", f.create).Methods(http.MethodPost)
	r.HandleFunc("/api/transactions/{id}", f.remove).Methods(http.MethodDelete)
	return r
}

func (f *fakeLedger) fail(w http.ResponseWriter, status int) {
	w.WriteHeader(status)
	_, _ = io.WriteString(w, f.errorBody)
}

func (f *fakeLedger) list(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listStatus != 0 {
		f.fail(w, f.listStatus)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(f.txs)
}

func (f *fakeLedger) create(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	if f.createGate != nil {
		<-f.createGate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	f.lastCreate = body
	if f.createStatus != 0 {
		f.fail(w, f.createStatus)
		return
	}

	var tx core.Transaction
	if err := json.Unmarshal(body, &tx); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	f.nextID++
	tx.ID = core.ID(strconv.Itoa(100 + f.nextID))
	f.txs = append(f.txs, tx)
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(tx)
}

func (f *fakeLedger) remove(w http.ResponseWriter, r *http.Request) {
	if f.deleteGate != nil {
		<-f.deleteGate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	if f.deleteStatus != 0 {
		f.fail(w, f.deleteStatus)
		return
	}
	id := core.ID(mux.Vars(r)["id"])
	for i, tx := range f.txs {
		if tx.ID == id {
			f.txs = append(f.txs[:i], f.txs[i+1:]...)
			break
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (f *fakeLedger) calls() (list, create, del int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls, f.createCalls, f.deleteCalls
}

func (f *fakeLedger) set(mut func(*fakeLedger)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	mut(f)
}

type recordingNav struct {
	mu    sync.Mutex
	paths []string
}

func (n *recordingNav) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
}

func (n *recordingNav) Paths() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

type countingConfirmer struct {
	mu       sync.Mutex
	answer   bool
	asked    int
	messages []string
}

func (c *countingConfirmer) Confirm(msg string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.asked++
	c.messages = append(c.messages, msg)
	return c.answer
}

func (c *countingConfirmer) Asked() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.asked
}

type harness struct {
	ledger  *fakeLedger
	session *session.Session
	guard   *session.Guard
	nav     *recordingNav
	client  *api.Client
}

func newHarness(t *testing.T, txs ...core.Transaction) *harness {
	t.Helper()
	ledger := &fakeLedger{txs: txs}
	srv := httptest.NewServer(ledger.router())
	t.Cleanup(srv.Close)

	sess := session.New(nil, log.Discard())
	require.NoError(t, sess.Set(context.Background(), "token-1"))

	nav := &recordingNav{}
	client, err := api.NewClient(srv.URL, sess, api.WithLogger(log.Discard()))
	require.NoError(t, err)

	return &harness{
		ledger:  ledger,
		session: sess,
		guard:   session.NewGuard(sess, nav, ports.NopPublisher{}, log.Discard()),
		nav:     nav,
		client:  client,
	}
}

func record(id, amount string, typ core.TransactionType, note, date string) core.Transaction {
	return core.Transaction{ID: core.ID(id), Amount: core.MustAmount(amount), Type: typ, Note: note, Date: core.Date(date)}
}

func sampleLedger() []core.Transaction {
	return []core.Transaction{
		record("1", "1200", core.Income, "salary", "2024-01-01"),
		record("2", "25.5", core.Expense, "coffee", "2024-01-15"),
		record("3", "80", core.Expense, "", "2024-01-20"),
	}
}

func idsOf(txs []core.Transaction) []core.ID {
	out := make([]core.ID, 0, len(txs))
	for _, tx := range txs {
		out = append(out, tx.ID)
	}
	return out
}
