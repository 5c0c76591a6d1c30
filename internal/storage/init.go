package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fatali-fataliyev/bank_ledger/logging"
	"github.com/go-sql-driver/mysql"
)

// --- INIT START --- //

const (
	connectAttempts   = 15
	connectRetryDelay = 3 * time.Second
)

// Init opens the database, waiting for it to come up. For MySQL the target
// database is created first when it does not exist.
func Init(ctx context.Context, driver string, dsn string) (*sql.DB, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}

	if d.driver == DriverMySQL {
		if err := ensureMySQLDatabase(ctx, dsn); err != nil {
			return nil, err
		}
	}

	logging.Logger.Info("Connecting to database...")
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database handle: %w", err)
	}
	if err := waitForDatabase(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)

	logging.Logger.Info("Connected to database successfully")
	return db, nil
}

func waitForDatabase(ctx context.Context, db *sql.DB) error {
	for i := 0; i < connectAttempts; i++ {
		err := db.PingContext(ctx)
		if err == nil {
			return nil
		}
		logging.Logger.Warnf("Database not ready, retrying... (%d/%d): %v", i+1, connectAttempts, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(connectRetryDelay):
		}
	}
	return fmt.Errorf("database unreachable after multiple attempts")
}

func ensureMySQLDatabase(ctx context.Context, dsn string) error {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return fmt.Errorf("failed to parse mysql dsn: %w", err)
	}
	dbname := cfg.DBName
	if dbname == "" {
		return nil
	}

	adminCfg := cfg.Clone()
	adminCfg.DBName = ""

	logging.Logger.Info("Connecting to MySQL server for initialization...")
	adminDb, err := sql.Open(DriverMySQL, adminCfg.FormatDSN())
	if err != nil {
		return fmt.Errorf("failed to open admin mysql handle: %w", err)
	}
	defer adminDb.Close()

	if err := waitForDatabase(ctx, adminDb); err != nil {
		return err
	}

	var dbnameExistence string
	checkDbnameExistQuery := "SELECT SCHEMA_NAME FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME = ?"
	err = adminDb.QueryRowContext(ctx, checkDbnameExistQuery, dbname).Scan(&dbnameExistence)
	if errors.Is(err, sql.ErrNoRows) {
		logging.Logger.Infof("Database '%s' does not exist, creating...", dbname)
		d, _ := dialectFor(DriverMySQL)
		createDbSql := fmt.Sprintf("CREATE DATABASE %s CHARACTER SET utf8mb4 COLLATE utf8mb4_general_ci", d.quoteIdent(dbname))
		if _, err := adminDb.ExecContext(ctx, createDbSql); err != nil {
			return fmt.Errorf("failed to create database: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check database existence: %w", err)
	}
	return nil
}

// baseSchema creates the tables every deployment needs: credentials and the
// username to ledger table registry. Per-user tables are created lazily.
func baseSchema(d dialect) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS credential (
	username VARCHAR(255)%s NOT NULL PRIMARY KEY,
	password_hash VARCHAR(255) NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`, d.binaryCollation),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS ledger_table (
	username VARCHAR(255)%s NOT NULL PRIMARY KEY,
	table_name VARCHAR(64) NOT NULL UNIQUE,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`, d.binaryCollation),
	}
}

func CreateBaseSchema(ctx context.Context, db *sql.DB, driver string) error {
	d, err := dialectFor(driver)
	if err != nil {
		return err
	}
	for _, statement := range baseSchema(d) {
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("failed to create base schema: %w\nStatement: %s", err, statement)
		}
	}
	logging.Logger.Info("base schema is ready")
	return nil
}

func ledgerTableSchema(d dialect, name string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	reference_no VARCHAR(36) NOT NULL PRIMARY KEY,
	txn_date DATE NOT NULL,
	details VARCHAR(1000) NOT NULL,
	debit DOUBLE PRECISION NOT NULL DEFAULT 0,
	credit DOUBLE PRECISION NOT NULL DEFAULT 0
)`, d.quoteIdent(name))
}

// --- INIT END --- //
