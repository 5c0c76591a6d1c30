package storage

import (
	"context"
	"sort"
	"sync"

	appErrors "github.com/fatali-fataliyev/bank_ledger/customErrors"
	"github.com/fatali-fataliyev/bank_ledger/internal/auth"
	"github.com/fatali-fataliyev/bank_ledger/internal/ledger"
)

const StorageTypeInMemory = "inmemory"

// InMemoryStorage mirrors SQLStorage's behavior without a database. It is
// used by tests and by `serve` when STORAGE=inmemory.
type InMemoryStorage struct {
	mu          sync.RWMutex
	credentials map[string]auth.Credential
	// username -> generated table name
	tables map[string]string
	// table name -> reference_no -> row
	rows map[string]map[string]ledger.Transaction
}

func NewInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{
		credentials: make(map[string]auth.Credential),
		tables:      make(map[string]string),
		rows:        make(map[string]map[string]ledger.Transaction),
	}
}

func (inMem *InMemoryStorage) GetStorageType() string {
	return StorageTypeInMemory
}

func (inMem *InMemoryStorage) Ping(ctx context.Context) error {
	return nil
}

func (inMem *InMemoryStorage) SaveCredential(ctx context.Context, credential auth.Credential) error {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()

	if _, ok := inMem.credentials[credential.Username]; ok {
		return appErrors.New(appErrors.ErrUsernameTaken, "Username already taken")
	}
	inMem.credentials[credential.Username] = credential
	return nil
}

func (inMem *InMemoryStorage) FindCredential(ctx context.Context, username string) (*auth.Credential, error) {
	inMem.mu.RLock()
	defer inMem.mu.RUnlock()

	credential, ok := inMem.credentials[username]
	if !ok {
		return nil, nil
	}
	return &credential, nil
}

func (inMem *InMemoryStorage) GetLedgerTable(ctx context.Context, username string) (ledger.LedgerTable, error) {
	inMem.mu.RLock()
	defer inMem.mu.RUnlock()

	name, ok := inMem.tables[username]
	if !ok {
		return ledger.LedgerTable{}, unknownUserError()
	}
	return ledger.LedgerTable{Owner: username, Name: name}, nil
}

func (inMem *InMemoryStorage) EnsureLedgerTable(ctx context.Context, username string) (ledger.LedgerTable, error) {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()

	name, ok := inMem.tables[username]
	if !ok {
		name = NewLedgerTableName()
		inMem.tables[username] = name
		inMem.rows[name] = make(map[string]ledger.Transaction)
	}
	return ledger.LedgerTable{Owner: username, Name: name}, nil
}

// rowsOf must be called with mu held.
func (inMem *InMemoryStorage) rowsOf(table ledger.LedgerTable) (map[string]ledger.Transaction, error) {
	if err := validateLedgerTableName(table.Name); err != nil {
		return nil, internalError("Failed to access transactions, try again later.")
	}
	rows, ok := inMem.rows[table.Name]
	if !ok {
		return nil, unknownUserError()
	}
	return rows, nil
}

func (inMem *InMemoryStorage) InsertTransaction(ctx context.Context, table ledger.LedgerTable, t ledger.Transaction) error {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()

	rows, err := inMem.rowsOf(table)
	if err != nil {
		return err
	}
	if _, ok := rows[t.ReferenceNo]; ok {
		return internalError("Failed to save the transaction, try again later.")
	}
	rows[t.ReferenceNo] = t
	return nil
}

func (inMem *InMemoryStorage) GetTransaction(ctx context.Context, table ledger.LedgerTable, referenceNo string) (ledger.Transaction, error) {
	inMem.mu.RLock()
	defer inMem.mu.RUnlock()

	rows, err := inMem.rowsOf(table)
	if err != nil {
		return ledger.Transaction{}, err
	}
	t, ok := rows[referenceNo]
	if !ok {
		return ledger.Transaction{}, recordNotFoundError(referenceNo)
	}
	return t, nil
}

func (inMem *InMemoryStorage) UpdateTransaction(ctx context.Context, table ledger.LedgerTable, t ledger.Transaction) error {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()

	rows, err := inMem.rowsOf(table)
	if err != nil {
		return err
	}
	if _, ok := rows[t.ReferenceNo]; !ok {
		return recordNotFoundError(t.ReferenceNo)
	}
	rows[t.ReferenceNo] = t
	return nil
}

func (inMem *InMemoryStorage) DeleteTransaction(ctx context.Context, table ledger.LedgerTable, referenceNo string) error {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()

	rows, err := inMem.rowsOf(table)
	if err != nil {
		return err
	}
	if _, ok := rows[referenceNo]; !ok {
		return recordNotFoundError(referenceNo)
	}
	delete(rows, referenceNo)
	return nil
}

func (inMem *InMemoryStorage) ListTransactions(ctx context.Context, table ledger.LedgerTable, filter ledger.TransactionFilter) ([]ledger.Transaction, error) {
	inMem.mu.RLock()
	defer inMem.mu.RUnlock()

	rows, err := inMem.rowsOf(table)
	if err != nil {
		return nil, err
	}

	result := []ledger.Transaction{}
	for _, t := range rows {
		if filter.Contains(t.Date) {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].ReferenceNo < result[j].ReferenceNo
	})
	return result, nil
}
