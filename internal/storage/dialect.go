package storage

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

const (
	mysqlDuplicateEntry     = 1062
	mysqlNoSuchTable        = 1146
	postgresUniqueViolation = "23505"
	postgresUndefinedTable  = "42P01"
)

// dialect holds what differs between the supported SQL backends. Queries
// are written once with '?' placeholders and rebound per dialect.
type dialect struct {
	driver    string
	quoteChar string
	numbered  bool
	// appended to username columns so lookups are exact-match.
	binaryCollation string
}

func dialectFor(driver string) (dialect, error) {
	switch strings.ToLower(driver) {
	case DriverMySQL:
		return dialect{
			driver:          DriverMySQL,
			quoteChar:       "`",
			binaryCollation: " COLLATE utf8mb4_bin",
		}, nil
	case DriverPostgres, "postgresql":
		return dialect{
			driver:    DriverPostgres,
			quoteChar: `"`,
			numbered:  true,
		}, nil
	default:
		return dialect{}, fmt.Errorf("unsupported database driver: %q", driver)
	}
}

func (d dialect) quoteIdent(identifier string) string {
	escaped := strings.ReplaceAll(identifier, d.quoteChar, d.quoteChar+d.quoteChar)
	return d.quoteChar + escaped + d.quoteChar
}

func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func isDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlDuplicateEntry
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == postgresUniqueViolation
	}
	return false
}

func isUndefinedTable(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlNoSuchTable
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == postgresUndefinedTable
	}
	return false
}
