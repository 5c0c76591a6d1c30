package storage

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const ledgerTablePrefix = "ledger_"

var ledgerTableNameRegex = regexp.MustCompile(`^ledger_[0-9a-f]{32}$`)

// NewLedgerTableName returns a fresh physical table name. It is derived from
// a random UUID, never from the username, so no user input reaches DDL.
func NewLedgerTableName() string {
	return ledgerTablePrefix + strings.ReplaceAll(uuid.New().String(), "-", "")
}

func validateLedgerTableName(name string) error {
	if !ledgerTableNameRegex.MatchString(name) {
		return fmt.Errorf("invalid ledger table name: %q", name)
	}
	return nil
}
