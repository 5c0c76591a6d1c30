package ledger

import (
	"fmt"
	"math"
	"time"

	appErrors "github.com/fatali-fataliyev/bank_ledger/customErrors"
	"github.com/shopspring/decimal"
)

const (
	DateLayout         = "2006-01-02"
	MonthLayout        = "2006-01"
	YearLayout         = "2006"
	DefaultDetails     = "None"
	MAX_DETAILS_LENGTH = 1000
)

// REQUESTS START:

// TransactionRequest is the client payload for create and update. Nil
// fields take their defaults.
type TransactionRequest struct {
	Date    string
	Details *string
	Debit   *float64
	Credit  *float64
}

type TransactionListRequest struct {
	From string
	To   string
}

// REQUESTS END:

// MODELS:

type Transaction struct {
	ReferenceNo string
	Date        time.Time
	Details     string
	Debit       float64
	Credit      float64
}

// LedgerTable describes one user's record table. It is built per call and
// never cached; Name is an opaque generated identifier.
type LedgerTable struct {
	Owner string
	Name  string
}

type TransactionFilter struct {
	From *time.Time
	To   *time.Time
}

func (f TransactionFilter) Contains(date time.Time) bool {
	if f.From != nil && date.Before(*f.From) {
		return false
	}
	if f.To != nil && date.After(*f.To) {
		return false
	}
	return true
}

// RESPONSES:

type SummaryGrouping string

const (
	GroupByMonth   SummaryGrouping = "month"
	GroupByYear    SummaryGrouping = "year"
	GroupByDetails SummaryGrouping = "details"
)

// ParseSummaryGrouping defaults to GroupByMonth when value is empty.
func ParseSummaryGrouping(value string) (SummaryGrouping, error) {
	switch grouping := SummaryGrouping(value); grouping {
	case "":
		return GroupByMonth, nil
	case GroupByMonth, GroupByYear, GroupByDetails:
		return grouping, nil
	default:
		return "", appErrors.New(appErrors.ErrInvalidPayload, "group_by must be one of: month, year, details")
	}
}

func (g SummaryGrouping) keyOf(t Transaction) string {
	switch g {
	case GroupByYear:
		return t.Date.Format(YearLayout)
	case GroupByDetails:
		return t.Details
	default:
		return t.Date.Format(MonthLayout)
	}
}

type Summary struct {
	Group  string
	Debit  decimal.Decimal
	Credit decimal.Decimal
	Net    decimal.Decimal
	Count  int
}

func ParseDate(value string) (time.Time, error) {
	date, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidDate,
			Message: fmt.Sprintf("Date format must be YYYY-MM-DD, got: '%s'", value),
		}
	}
	return date, nil
}

// ToTransaction validates the request and applies defaults.
func (req TransactionRequest) ToTransaction(referenceNo string) (Transaction, error) {
	date, err := ParseDate(req.Date)
	if err != nil {
		return Transaction{}, err
	}

	details := DefaultDetails
	if req.Details != nil {
		details = *req.Details
	}
	if len(details) > MAX_DETAILS_LENGTH {
		return Transaction{}, appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidPayload,
			Message: fmt.Sprintf("Details so long, maximum allowed length is: %d", MAX_DETAILS_LENGTH),
		}
	}

	var debit, credit float64
	if req.Debit != nil {
		debit = *req.Debit
	}
	if req.Credit != nil {
		credit = *req.Credit
	}
	if !isFinite(debit) || !isFinite(credit) {
		return Transaction{}, appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidPayload,
			Message: "Debit and credit must be finite numbers",
		}
	}

	return Transaction{
		ReferenceNo: referenceNo,
		Date:        date,
		Details:     details,
		Debit:       debit,
		Credit:      credit,
	}, nil
}

func (req TransactionListRequest) ToFilter() (TransactionFilter, error) {
	var filter TransactionFilter
	if req.From != "" {
		from, err := ParseDate(req.From)
		if err != nil {
			return TransactionFilter{}, err
		}
		filter.From = &from
	}
	if req.To != "" {
		to, err := ParseDate(req.To)
		if err != nil {
			return TransactionFilter{}, err
		}
		filter.To = &to
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return TransactionFilter{}, appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidPayload,
			Message: "'from' date cannot be after 'to' date",
		}
	}
	return filter, nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
