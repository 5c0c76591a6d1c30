package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	appErrors "github.com/fatali-fataliyev/bank_ledger/customErrors"
	"github.com/fatali-fataliyev/bank_ledger/internal/contextutil"
	"github.com/fatali-fataliyev/bank_ledger/internal/events"
	"github.com/fatali-fataliyev/bank_ledger/logging"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const publishTimeout = 2 * time.Second

type Storage interface {
	// EnsureLedgerTable resolves the user's table, creating it when absent.
	EnsureLedgerTable(ctx context.Context, username string) (LedgerTable, error)
	// GetLedgerTable resolves the user's table and fails with
	// ErrUnknownUser when it was never created.
	GetLedgerTable(ctx context.Context, username string) (LedgerTable, error)
	InsertTransaction(ctx context.Context, table LedgerTable, t Transaction) error
	GetTransaction(ctx context.Context, table LedgerTable, referenceNo string) (Transaction, error)
	UpdateTransaction(ctx context.Context, table LedgerTable, t Transaction) error
	DeleteTransaction(ctx context.Context, table LedgerTable, referenceNo string) error
	ListTransactions(ctx context.Context, table LedgerTable, filter TransactionFilter) ([]Transaction, error)
	GetStorageType() string
}

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (username string, err error)
}

// Service runs every operation as verify token, resolve the caller's own
// table, then touch at most that one table.
type Service struct {
	storage     Storage
	verifier    TokenVerifier
	publisher   events.Publisher
	now         func() time.Time
	StorageType string
}

func NewService(s Storage, verifier TokenVerifier, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &Service{
		storage:     s,
		verifier:    verifier,
		publisher:   publisher,
		now:         time.Now,
		StorageType: s.GetStorageType(),
	}
}

func (s *Service) authorize(ctx context.Context, token string) (string, error) {
	username, err := s.verifier.Verify(ctx, token)
	if err != nil {
		return "", fmt.Errorf("authorization failed: %w", err)
	}
	return username, nil
}

func (s *Service) CreateTransaction(ctx context.Context, token string, req TransactionRequest) (string, error) {
	username, err := s.authorize(ctx, token)
	if err != nil {
		return "", err
	}

	txn, err := req.ToTransaction(uuid.New().String())
	if err != nil {
		return "", err
	}

	table, err := s.storage.EnsureLedgerTable(ctx, username)
	if err != nil {
		return "", fmt.Errorf("failed to prepare ledger table: %w", err)
	}

	if err := s.storage.InsertTransaction(ctx, table, txn); err != nil {
		return "", fmt.Errorf("failed to save transaction: %w", err)
	}

	s.publish(ctx, events.TransactionCreated, username, txn.ReferenceNo)
	return txn.ReferenceNo, nil
}

func (s *Service) GetTransaction(ctx context.Context, token string, referenceNo string) (Transaction, error) {
	username, err := s.authorize(ctx, token)
	if err != nil {
		return Transaction{}, err
	}

	table, err := s.storage.GetLedgerTable(ctx, username)
	if err != nil {
		return Transaction{}, fmt.Errorf("failed to get ledger table: %w", err)
	}

	txn, err := s.storage.GetTransaction(ctx, table, referenceNo)
	if err != nil {
		return Transaction{}, fmt.Errorf("failed to get transaction by reference: %w", err)
	}
	return txn, nil
}

func (s *Service) UpdateTransaction(ctx context.Context, token string, referenceNo string, req TransactionRequest) error {
	username, err := s.authorize(ctx, token)
	if err != nil {
		return err
	}

	table, err := s.storage.GetLedgerTable(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to get ledger table: %w", err)
	}

	txn, err := req.ToTransaction(referenceNo)
	if err != nil {
		return err
	}

	if err := s.storage.UpdateTransaction(ctx, table, txn); err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	s.publish(ctx, events.TransactionUpdated, username, referenceNo)
	return nil
}

func (s *Service) DeleteTransaction(ctx context.Context, token string, referenceNo string) error {
	username, err := s.authorize(ctx, token)
	if err != nil {
		return err
	}

	table, err := s.storage.GetLedgerTable(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to get ledger table: %w", err)
	}

	if err := s.storage.DeleteTransaction(ctx, table, referenceNo); err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	s.publish(ctx, events.TransactionDeleted, username, referenceNo)
	return nil
}

// ListTransactions returns an empty list for users who never wrote a
// transaction instead of ErrUnknownUser.
func (s *Service) ListTransactions(ctx context.Context, token string, req TransactionListRequest) ([]Transaction, error) {
	username, err := s.authorize(ctx, token)
	if err != nil {
		return nil, err
	}

	filter, err := req.ToFilter()
	if err != nil {
		return nil, err
	}

	table, err := s.storage.GetLedgerTable(ctx, username)
	if err != nil {
		if appErrors.Is(err, appErrors.ErrUnknownUser) {
			return []Transaction{}, nil
		}
		return nil, fmt.Errorf("failed to get ledger table: %w", err)
	}

	ts, err := s.storage.ListTransactions(ctx, table, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	return ts, nil
}

// Summarize totals the caller's records per group, month by default.
func (s *Service) Summarize(ctx context.Context, token string, req TransactionListRequest, groupBy string) ([]Summary, error) {
	ts, err := s.ListTransactions(ctx, token, req)
	if err != nil {
		return nil, err
	}
	grouping, err := ParseSummaryGrouping(groupBy)
	if err != nil {
		return nil, err
	}
	return SummarizeBy(ts, grouping), nil
}

// SummarizeBy sums debit and credit per group as decimals and orders the
// groups by key.
func SummarizeBy(ts []Transaction, grouping SummaryGrouping) []Summary {
	byGroup := make(map[string]*Summary)
	for _, t := range ts {
		key := grouping.keyOf(t)
		summary, ok := byGroup[key]
		if !ok {
			summary = &Summary{Group: key, Debit: decimal.Zero, Credit: decimal.Zero}
			byGroup[key] = summary
		}
		summary.Debit = summary.Debit.Add(decimal.NewFromFloat(t.Debit))
		summary.Credit = summary.Credit.Add(decimal.NewFromFloat(t.Credit))
		summary.Count++
	}

	summaries := make([]Summary, 0, len(byGroup))
	for _, summary := range byGroup {
		summary.Debit = summary.Debit.Round(2)
		summary.Credit = summary.Credit.Round(2)
		summary.Net = summary.Credit.Sub(summary.Debit)
		summaries = append(summaries, *summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Group < summaries[j].Group
	})
	return summaries
}

// publish runs after the commit; a failure is logged and never returned.
func (s *Service) publish(ctx context.Context, eventType events.EventType, username string, referenceNo string) {
	event := events.TransactionEvent{
		Type:        eventType,
		Username:    username,
		ReferenceNo: referenceNo,
		OccurredAt:  s.now().UTC(),
	}

	// the write already happened, so the request ending must not drop its event
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.publisher.Publish(ctx, event); err != nil {
		traceID := contextutil.TraceIDFromContext(ctx)
		logging.Logger.Warnf("[TraceID=%s] | failed to publish %s event for transaction %s | Error: %v", traceID, eventType, referenceNo, err)
	}
}
