package core

// MsgAmountNotPositive is shown when the amount field is rejected.
const MsgAmountNotPositive = "Amount must be greater than 0"

type (
	// Candidate is a transaction as typed into the creation form. Amount is
	// the raw field text.
	Candidate struct {
		Amount string
		Type   TransactionType
		Note   string
		Date   Date
	}

	// ValidCandidate has passed Validate and is ready to be submitted. Its JSON
	// form is the POST /api/transactions body.
	ValidCandidate struct {
		Amount Amount          `json:"amount"`
		Type   TransactionType `json:"type"`
		Note   string          `json:"note"`
		Date   Date            `json:"date"`
	}

	// ValidationError is a local, pre-flight rejection of a candidate.
	ValidationError struct {
		Message string
		Err     error
	}
)

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return e.Err }

// Validate checks a candidate before submission. Only the amount is
// constrained: it must be a number strictly greater than 0. Type, note and
// date pass through untouched.
func Validate(c Candidate) (ValidCandidate, error) {
	amount, err := ParseAmount(c.Amount)
	if err != nil || !amount.IsPositive() {
		return ValidCandidate{}, &ValidationError{Message: MsgAmountNotPositive, Err: ErrInvalidAmount}
	}
	return ValidCandidate{
		Amount: amount,
		Type:   c.Type,
		Note:   c.Note,
		Date:   c.Date,
	}, nil
}
