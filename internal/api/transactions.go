package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"financeflow/internal/core"
	"financeflow/internal/ports"
)

const transactionsPath = "/api/transactions"

var ErrEmptyID = errors.New("empty transaction id")

var _ ports.TransactionAPI = (*Client)(nil)

// ListTransactions fetches the whole collection in server order. A null body
// is an empty list.
func (c *Client) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	var txs []core.Transaction
	if err := c.Do(ctx, http.MethodGet, transactionsPath, nil, &txs); err != nil {
		return nil, err
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	return txs, nil
}

// CreateTransaction posts a validated candidate and returns the record the
// server echoes back, which may be zero if it sends no body.
func (c *Client) CreateTransaction(ctx context.Context, vc core.ValidCandidate) (core.Transaction, error) {
	var created core.Transaction
	if err := c.Do(ctx, http.MethodPost, transactionsPath, vc, &created); err != nil {
		return core.Transaction{}, err
	}
	return created, nil
}

func (c *Client) DeleteTransaction(ctx context.Context, id core.ID) error {
	if id == "" {
		return ErrEmptyID
	}
	return c.Do(ctx, http.MethodDelete, transactionsPath+"/"+url.PathEscape(string(id)), nil, nil)
}
