package api

import (
	"time"

	appErrors "github.com/fatali-fataliyev/bank_ledger/customErrors"
	"github.com/fatali-fataliyev/bank_ledger/internal/ledger"
	"github.com/shopspring/decimal"
)

// REQUESTS START:

type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TransactionRequest leaves optional fields as pointers so that an absent
// or null value falls back to its default.
type TransactionRequest struct {
	Date    string   `json:"date"`
	Details *string  `json:"details"`
	Debit   *float64 `json:"debit"`
	Credit  *float64 `json:"credit"`
}

// REQUESTS END:

// RESPONSES:

type MessageResponse struct {
	Message string `json:"message"`
}

type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type CreateTransactionResponse struct {
	ReferenceNo string `json:"reference_no"`
}

type TransactionItem struct {
	ReferenceNo string  `json:"reference_no"`
	Date        string  `json:"date"`
	Details     string  `json:"details"`
	Debit       float64 `json:"debit"`
	Credit      float64 `json:"credit"`
}

type ListTransactionResponse struct {
	Transactions []TransactionItem `json:"transactions"`
}

// Totals are decimals and serialize as JSON strings.
type SummaryItem struct {
	Group  string          `json:"group"`
	Debit  decimal.Decimal `json:"debit"`
	Credit decimal.Decimal `json:"credit"`
	Net    decimal.Decimal `json:"net"`
	Count  int             `json:"count"`
}

type SummaryResponse struct {
	GroupBy string        `json:"group_by"`
	Groups  []SummaryItem `json:"groups"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
}

func httpStatusFromError(err error) int {
	switch appErrors.CodeOf(err) {
	case appErrors.ErrInvalidCredentials, appErrors.ErrInvalidToken:
		return 401 // unauthorized
	case appErrors.ErrUsernameTaken, appErrors.ErrInvalidInput:
		return 400 // bad request
	case appErrors.ErrUnknownUser, appErrors.ErrRecordNotFound:
		return 404 // not found
	case appErrors.ErrInvalidDate, appErrors.ErrInvalidPayload:
		return 422 // unprocessable entity
	case appErrors.ErrRateLimited:
		return 429 // too many requests
	default:
		return 500 // internal error
	}
}

func errorResponse(err error) appErrors.ErrorResponse {
	return appErrors.ErrorResponse{
		Code:    appErrors.CodeOf(err),
		Message: appErrors.MessageOf(err),
	}
}

func (req TransactionRequest) toLedger() ledger.TransactionRequest {
	return ledger.TransactionRequest{
		Date:    req.Date,
		Details: req.Details,
		Debit:   req.Debit,
		Credit:  req.Credit,
	}
}

func TransactionToHttp(t ledger.Transaction) TransactionItem {
	return TransactionItem{
		ReferenceNo: t.ReferenceNo,
		Date:        t.Date.Format(ledger.DateLayout),
		Details:     t.Details,
		Debit:       t.Debit,
		Credit:      t.Credit,
	}
}

func SummaryToHttp(s ledger.Summary) SummaryItem {
	return SummaryItem{
		Group:  s.Group,
		Debit:  s.Debit,
		Credit: s.Credit,
		Net:    s.Net,
		Count:  s.Count,
	}
}
