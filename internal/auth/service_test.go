package auth

import (
	"strings"
	"testing"

	appErrors "github.com/fatali-fataliyev/bank_ledger/customErrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	plain := "messi10"

	new_hash, err := HashPassword(plain)
	require.NoError(t, err)

	require.True(t, ComparePasswords(new_hash, plain))
	require.False(t, ComparePasswords(new_hash, "messi11"))
}

func TestHashPasswordIsSalted(t *testing.T) {
	first, err := HashPassword("pw1")
	require.NoError(t, err)
	second, err := HashPassword("pw1")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestDummyHashIsWellFormed(t *testing.T) {
	require.True(t, ComparePasswords(dummyHash, "messi10"))
}

func TestValidateFields(t *testing.T) {
	tests := []struct {
		name        string
		input       NewCredential
		expectedMsg string
	}{
		{
			name:        "Fail - Empty Username",
			input:       NewCredential{Username: "", PasswordPlain: "123"},
			expectedMsg: "Username cannot be empty!",
		},
		{
			name:        "Fail - Long Username",
			input:       NewCredential{Username: strings.Repeat("a", 256), PasswordPlain: "123"},
			expectedMsg: "Username so long",
		},
		{
			name:        "Fail - Empty Password",
			input:       NewCredential{Username: "alice", PasswordPlain: ""},
			expectedMsg: "Password cannot be empty!",
		},
		{
			name:        "Fail - Long Password",
			input:       NewCredential{Username: "alice", PasswordPlain: strings.Repeat("p", 73)},
			expectedMsg: "Password so long",
		},
		{
			name:  "Success - Any characters in username",
			input: NewCredential{Username: "robert'); DROP TABLE credential;--", PasswordPlain: "pw1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.ValidateFields()
			if tt.expectedMsg == "" {
				require.NoError(t, err)
				return
			}

			require.Error(t, err)
			appErr, ok := err.(appErrors.ErrorResponse)
			require.True(t, ok)
			assert.Equal(t, appErrors.ErrInvalidInput, appErr.Code)
			assert.Contains(t, appErr.Message, tt.expectedMsg)
		})
	}
}
