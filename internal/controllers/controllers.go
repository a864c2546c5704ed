// Package controllers turns the transaction store and the session guard into
// observable view state for the dashboard and the creation form.
package controllers

import (
	"context"
	"errors"
)

// User-visible messages.
const (
	MsgLoadFailed    = "Failed to load transactions"
	MsgDeleteFailed  = "Failed to delete transaction"
	MsgCreateFailed  = "Failed to create transaction"
	MsgConfirmDelete = "Delete this transaction?"
)

var (
	ErrAlreadyMounted   = errors.New("dashboard already mounted")
	ErrNotLoaded        = errors.New("transactions not loaded")
	ErrSessionEnded     = errors.New("session ended")
	ErrDeleteDeclined   = errors.New("delete not confirmed")
	ErrSubmitInProgress = errors.New("submit already in progress")
	ErrFormClosed       = errors.New("form already left")
)

// SessionGuard ends the session and sends the user back to the entry path.
type SessionGuard interface {
	OnUnauthorized(ctx context.Context)
	Logout(ctx context.Context)
}
