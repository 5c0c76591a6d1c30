package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	appErrors "github.com/fatali-fataliyev/bank_ledger/customErrors"
	"github.com/fatali-fataliyev/bank_ledger/internal/auth"
	"github.com/fatali-fataliyev/bank_ledger/internal/contextutil"
	"github.com/fatali-fataliyev/bank_ledger/internal/ledger"
	"github.com/fatali-fataliyev/bank_ledger/logging"
	"golang.org/x/sync/singleflight"
)

const ensureTimeout = 10 * time.Second

// SQLStorage keeps credentials, the ledger table registry and every
// per-user ledger table in one MySQL or PostgreSQL database.
type SQLStorage struct {
	db      *sql.DB
	dialect dialect

	// collapses concurrent first writes of one user in this process
	ensureGroup singleflight.Group
}

func NewSQLStorage(db *sql.DB, driver string) (*SQLStorage, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	return &SQLStorage{db: db, dialect: d}, nil
}

func (s *SQLStorage) GetStorageType() string {
	return s.dialect.driver
}

func (s *SQLStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func internalError(message string) error {
	return appErrors.New(appErrors.ErrInternal, message)
}

func unknownUserError() error {
	return appErrors.New(appErrors.ErrUnknownUser, "table does not exist")
}

func recordNotFoundError(referenceNo string) error {
	return appErrors.New(appErrors.ErrRecordNotFound, fmt.Sprintf("Transaction with reference %s not found", referenceNo))
}

// --- CREDENTIALS --- //

func (s *SQLStorage) SaveCredential(ctx context.Context, credential auth.Credential) error {
	traceID := contextutil.TraceIDFromContext(ctx)

	query := s.dialect.rebind("INSERT INTO credential (username, password_hash, created_at) VALUES (?, ?, ?)")
	_, err := s.db.ExecContext(ctx, query, credential.Username, credential.PasswordHash, credential.CreatedAt.UTC())
	if err != nil {
		if isDuplicateKey(err) {
			return appErrors.New(appErrors.ErrUsernameTaken, "Username already taken")
		}
		logging.Logger.Errorf("[TraceID=%s] | failed to save credential in Storage.SaveCredential() function | Error: %v", traceID, err)
		return internalError("Registration failed, try again later.")
	}
	return nil
}

func (s *SQLStorage) FindCredential(ctx context.Context, username string) (*auth.Credential, error) {
	traceID := contextutil.TraceIDFromContext(ctx)

	query := s.dialect.rebind("SELECT username, password_hash, created_at FROM credential WHERE username = ?")
	var dbC dbCredential
	err := s.db.QueryRowContext(ctx, query, username).Scan(&dbC.Username, &dbC.PasswordHash, &dbC.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		logging.Logger.Errorf("[TraceID=%s] | failed to get credential in Storage.FindCredential() function | Error: %v", traceID, err)
		return nil, internalError("Failed to check credentials, try again later.")
	}

	return &auth.Credential{
		Username:     dbC.Username,
		PasswordHash: dbC.PasswordHash,
		CreatedAt:    dbC.CreatedAt,
	}, nil
}

// --- LEDGER TABLES --- //

func (s *SQLStorage) lookupLedgerTable(ctx context.Context, username string) (string, error) {
	query := s.dialect.rebind("SELECT table_name FROM ledger_table WHERE username = ?")
	var name string
	if err := s.db.QueryRowContext(ctx, query, username).Scan(&name); err != nil {
		return "", err
	}
	if err := validateLedgerTableName(name); err != nil {
		return "", err
	}
	return name, nil
}

func (s *SQLStorage) GetLedgerTable(ctx context.Context, username string) (ledger.LedgerTable, error) {
	traceID := contextutil.TraceIDFromContext(ctx)

	name, err := s.lookupLedgerTable(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.LedgerTable{}, unknownUserError()
		}
		logging.Logger.Errorf("[TraceID=%s] | failed to get ledger table in Storage.GetLedgerTable() function | Error: %v", traceID, err)
		return ledger.LedgerTable{}, internalError("Failed to get transactions, try again later.")
	}
	return ledger.LedgerTable{Owner: username, Name: name}, nil
}

// EnsureLedgerTable registers a generated table name for the user when none
// exists yet and creates the table. Concurrent first writes for one user
// converge on whichever registry row won.
//
// The shared work outlives any single waiter: it runs on a detached context
// bounded by ensureTimeout, and each caller stops waiting when its own
// context ends.
func (s *SQLStorage) EnsureLedgerTable(ctx context.Context, username string) (ledger.LedgerTable, error) {
	result := s.ensureGroup.DoChan(username, func() (interface{}, error) {
		workCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ensureTimeout)
		defer cancel()
		return s.ensureLedgerTable(workCtx, username)
	})

	select {
	case <-ctx.Done():
		return ledger.LedgerTable{}, ctx.Err()
	case res := <-result:
		if res.Err != nil {
			return ledger.LedgerTable{}, res.Err
		}
		return ledger.LedgerTable{Owner: username, Name: res.Val.(string)}, nil
	}
}

func (s *SQLStorage) ensureLedgerTable(ctx context.Context, username string) (string, error) {
	traceID := contextutil.TraceIDFromContext(ctx)

	name, err := s.lookupLedgerTable(ctx, username)
	if errors.Is(err, sql.ErrNoRows) {
		name = NewLedgerTableName()
		insert := s.dialect.rebind("INSERT INTO ledger_table (username, table_name, created_at) VALUES (?, ?, ?)")
		_, err = s.db.ExecContext(ctx, insert, username, name, time.Now().UTC())
		if isDuplicateKey(err) {
			name, err = s.lookupLedgerTable(ctx, username)
		}
	}
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to register ledger table in Storage.EnsureLedgerTable() function | Error: %v", traceID, err)
		return "", internalError("Failed to save the transaction, try again later.")
	}

	if _, err := s.db.ExecContext(ctx, ledgerTableSchema(s.dialect, name)); err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to create ledger table in Storage.EnsureLedgerTable() function | Error: %v", traceID, err)
		return "", internalError("Failed to save the transaction, try again later.")
	}
	return name, nil
}

func (s *SQLStorage) tableIdent(table ledger.LedgerTable) (string, error) {
	if err := validateLedgerTableName(table.Name); err != nil {
		return "", err
	}
	return s.dialect.quoteIdent(table.Name), nil
}

// --- TRANSACTIONS --- //

func (s *SQLStorage) InsertTransaction(ctx context.Context, table ledger.LedgerTable, t ledger.Transaction) error {
	traceID := contextutil.TraceIDFromContext(ctx)

	ident, err := s.tableIdent(table)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | rejected ledger table in Storage.InsertTransaction() function | Error: %v", traceID, err)
		return internalError("Failed to save the transaction, try again later.")
	}

	query := s.dialect.rebind(fmt.Sprintf("INSERT INTO %s (reference_no, txn_date, details, debit, credit) VALUES (?, ?, ?, ?, ?)", ident))
	_, err = s.db.ExecContext(ctx, query, t.ReferenceNo, t.Date.Format(ledger.DateLayout), t.Details, t.Debit, t.Credit)
	if err != nil {
		if isUndefinedTable(err) {
			return unknownUserError()
		}
		logging.Logger.Errorf("[TraceID=%s] | failed to save transaction in Storage.InsertTransaction() function | Error: %v", traceID, err)
		return internalError("Failed to save the transaction, try again later.")
	}
	return nil
}

func (s *SQLStorage) GetTransaction(ctx context.Context, table ledger.LedgerTable, referenceNo string) (ledger.Transaction, error) {
	traceID := contextutil.TraceIDFromContext(ctx)

	ident, err := s.tableIdent(table)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | rejected ledger table in Storage.GetTransaction() function | Error: %v", traceID, err)
		return ledger.Transaction{}, internalError("Failed to get the transaction, try again later.")
	}

	query := s.dialect.rebind(fmt.Sprintf("SELECT reference_no, txn_date, details, debit, credit FROM %s WHERE reference_no = ?", ident))
	var dbT dbTransaction
	err = s.db.QueryRowContext(ctx, query, referenceNo).Scan(&dbT.ReferenceNo, &dbT.TxnDate, &dbT.Details, &dbT.Debit, &dbT.Credit)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.Transaction{}, recordNotFoundError(referenceNo)
		}
		if isUndefinedTable(err) {
			return ledger.Transaction{}, unknownUserError()
		}
		logging.Logger.Errorf("[TraceID=%s] | failed to get transaction in Storage.GetTransaction() function | Error: %v", traceID, err)
		return ledger.Transaction{}, internalError("Failed to get the transaction, try again later.")
	}
	return dbT.toTransaction(), nil
}

// UpdateTransaction locks the row before writing so that an update which
// changes nothing is still told apart from a missing reference.
func (s *SQLStorage) UpdateTransaction(ctx context.Context, table ledger.LedgerTable, t ledger.Transaction) error {
	traceID := contextutil.TraceIDFromContext(ctx)

	ident, err := s.tableIdent(table)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | rejected ledger table in Storage.UpdateTransaction() function | Error: %v", traceID, err)
		return internalError("Failed to update the transaction, try again later.")
	}

	txn, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to start transaction in Storage.UpdateTransaction() function | Error: %v", traceID, err)
		return internalError("Failed to update the transaction, try again later.")
	}
	defer txn.Rollback()

	lock := s.dialect.rebind(fmt.Sprintf("SELECT 1 FROM %s WHERE reference_no = ? FOR UPDATE", ident))
	var exists int
	if err := txn.QueryRowContext(ctx, lock, t.ReferenceNo).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return recordNotFoundError(t.ReferenceNo)
		}
		if isUndefinedTable(err) {
			return unknownUserError()
		}
		logging.Logger.Errorf("[TraceID=%s] | failed to lock transaction in Storage.UpdateTransaction() function | Error: %v", traceID, err)
		return internalError("Failed to update the transaction, try again later.")
	}

	update := s.dialect.rebind(fmt.Sprintf("UPDATE %s SET txn_date = ?, details = ?, debit = ?, credit = ? WHERE reference_no = ?", ident))
	if _, err := txn.ExecContext(ctx, update, t.Date.Format(ledger.DateLayout), t.Details, t.Debit, t.Credit, t.ReferenceNo); err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to update transaction in Storage.UpdateTransaction() function | Error: %v", traceID, err)
		return internalError("Failed to update the transaction, try again later.")
	}

	if err := txn.Commit(); err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to commit transaction in Storage.UpdateTransaction() function | Error: %v", traceID, err)
		return internalError("Failed to update the transaction, try again later.")
	}
	return nil
}

func (s *SQLStorage) DeleteTransaction(ctx context.Context, table ledger.LedgerTable, referenceNo string) error {
	traceID := contextutil.TraceIDFromContext(ctx)

	ident, err := s.tableIdent(table)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | rejected ledger table in Storage.DeleteTransaction() function | Error: %v", traceID, err)
		return internalError("Failed to delete the transaction, try again later.")
	}

	query := s.dialect.rebind(fmt.Sprintf("DELETE FROM %s WHERE reference_no = ?", ident))
	res, err := s.db.ExecContext(ctx, query, referenceNo)
	if err != nil {
		if isUndefinedTable(err) {
			return unknownUserError()
		}
		logging.Logger.Errorf("[TraceID=%s] | failed to delete transaction in Storage.DeleteTransaction() function | Error: %v", traceID, err)
		return internalError("Failed to delete the transaction, try again later.")
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to check affected rows in Storage.DeleteTransaction() function | Error: %v", traceID, err)
		return internalError("Failed to delete the transaction, try again later.")
	}
	if rowsAffected == 0 {
		return recordNotFoundError(referenceNo)
	}
	return nil
}

func (s *SQLStorage) ListTransactions(ctx context.Context, table ledger.LedgerTable, filter ledger.TransactionFilter) ([]ledger.Transaction, error) {
	traceID := contextutil.TraceIDFromContext(ctx)

	ident, err := s.tableIdent(table)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | rejected ledger table in Storage.ListTransactions() function | Error: %v", traceID, err)
		return nil, internalError("Failed to get transactions, try again later.")
	}

	query := fmt.Sprintf("SELECT reference_no, txn_date, details, debit, credit FROM %s WHERE 1 = 1", ident)
	var args []any
	if filter.From != nil {
		query += " AND txn_date >= ?"
		args = append(args, filter.From.Format(ledger.DateLayout))
	}
	if filter.To != nil {
		query += " AND txn_date <= ?"
		args = append(args, filter.To.Format(ledger.DateLayout))
	}
	query += " ORDER BY txn_date, reference_no"

	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		if isUndefinedTable(err) {
			return nil, unknownUserError()
		}
		logging.Logger.Errorf("[TraceID=%s] | failed to list transactions in Storage.ListTransactions() function | Error: %v", traceID, err)
		return nil, internalError("Failed to get transactions, try again later.")
	}
	defer rows.Close()

	transactions := []ledger.Transaction{}
	for rows.Next() {
		var dbT dbTransaction
		if err := rows.Scan(&dbT.ReferenceNo, &dbT.TxnDate, &dbT.Details, &dbT.Debit, &dbT.Credit); err != nil {
			logging.Logger.Errorf("[TraceID=%s] | failed to scan transaction in Storage.ListTransactions() function | Error: %v", traceID, err)
			return nil, internalError("Failed to get transactions, try again later.")
		}
		transactions = append(transactions, dbT.toTransaction())
	}
	if err := rows.Err(); err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to iterate transactions in Storage.ListTransactions() function | Error: %v", traceID, err)
		return nil, internalError("Failed to get transactions, try again later.")
	}
	return transactions, nil
}
