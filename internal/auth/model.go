package auth

import (
	"fmt"
	"time"

	appErrors "github.com/fatali-fataliyev/bank_ledger/customErrors"
)

const (
	MAX_LENGTH_USERNAME = 255
	MAX_PASSWORD_LENGTH = 72
)

type Credential struct {
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

type NewCredential struct {
	Username      string
	PasswordPlain string
}

// ValidateFields checks input limits only. Usernames are not restricted to
// a character set because ledger tables get generated names, never the
// username itself.
func (c NewCredential) ValidateFields() error {
	if c.Username == "" {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: "Username cannot be empty!",
		}
	}
	if len(c.Username) > MAX_LENGTH_USERNAME {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: fmt.Sprintf("Username so long, maximum length is %d", MAX_LENGTH_USERNAME),
		}
	}
	if c.PasswordPlain == "" {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: "Password cannot be empty!",
		}
	}
	if len(c.PasswordPlain) > MAX_PASSWORD_LENGTH {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: fmt.Sprintf("Password so long, maximum length is %d", MAX_PASSWORD_LENGTH),
		}
	}
	return nil
}

type UserCredentialsPure struct {
	Username      string
	PasswordPlain string
}

type Token struct {
	AccessToken string
	TokenType   string
	ExpireAt    time.Time
}
