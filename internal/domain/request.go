package domain

// RequestKind tags the variants accepted by the request gateway.
type RequestKind string

const (
	KindTransfer     RequestKind = "transfer"
	KindBalanceQuery RequestKind = "balance"
)

// Request is a tagged variant: TransferRequest or BalanceQuery.
type Request interface {
	Kind() RequestKind
}

// BalanceQuery asks for the current balance of one account.
type BalanceQuery struct {
	AccountID string
}

// Kind implements Request.
func (BalanceQuery) Kind() RequestKind {
	return KindBalanceQuery
}

// Response is the transport-agnostic reply to a Request.
type Response struct {
	StatusCode int
	Body       string
	Transfer   *TransferResult
	Account    *Account
	Err        error
}
