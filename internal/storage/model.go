package storage

import (
	"time"

	"github.com/fatali-fataliyev/bank_ledger/internal/ledger"
)

type dbCredential struct {
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

type dbTransaction struct {
	ReferenceNo string
	TxnDate     time.Time
	Details     string
	Debit       float64
	Credit      float64
}

// toTransaction drops whatever time of day and zone the driver attached to
// the DATE column.
func (t dbTransaction) toTransaction() ledger.Transaction {
	y, m, d := t.TxnDate.Date()
	return ledger.Transaction{
		ReferenceNo: t.ReferenceNo,
		Date:        time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		Details:     t.Details,
		Debit:       t.Debit,
		Credit:      t.Credit,
	}
}
