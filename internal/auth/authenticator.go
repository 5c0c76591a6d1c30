package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	appErrors "github.com/fatali-fataliyev/bank_ledger/customErrors"
	"github.com/fatali-fataliyev/bank_ledger/internal/contextutil"
	"github.com/fatali-fataliyev/bank_ledger/logging"
	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultTokenTTL = 30 * time.Minute
	TokenType       = "bearer"
)

type CredentialStore interface {
	SaveCredential(ctx context.Context, credential Credential) error
	// FindCredential returns nil, nil when the username is unknown.
	FindCredential(ctx context.Context, username string) (*Credential, error)
}

// Authenticator is the credential store front and the token service.
// Tokens are HS256 JWTs carrying only the subject and its time window;
// nothing about them is persisted and they cannot be revoked.
type Authenticator struct {
	store  CredentialStore
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthenticator(store CredentialStore, secret string, ttl time.Duration) *Authenticator {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Authenticator{
		store:  store,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (a *Authenticator) Register(ctx context.Context, newCredential NewCredential) error {
	if err := newCredential.ValidateFields(); err != nil {
		return err
	}

	existing, err := a.store.FindCredential(ctx, newCredential.Username)
	if err != nil {
		return fmt.Errorf("failed to check username availability: %w", err)
	}
	if existing != nil {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrUsernameTaken,
			Message: "Username already taken",
		}
	}

	hashedPassword, err := HashPassword(newCredential.PasswordPlain)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	credential := Credential{
		Username:     newCredential.Username,
		PasswordHash: hashedPassword,
		CreatedAt:    a.now().UTC(),
	}
	if err := a.store.SaveCredential(ctx, credential); err != nil {
		return fmt.Errorf("failed to registration: %w", err)
	}
	return nil
}

func (a *Authenticator) Login(ctx context.Context, credentials UserCredentialsPure) (Token, error) {
	invalid := appErrors.ErrorResponse{
		Code:    appErrors.ErrInvalidCredentials,
		Message: "Invalid credentials",
	}

	credential, err := a.store.FindCredential(ctx, credentials.Username)
	if err != nil {
		return Token{}, fmt.Errorf("failed to find credential: %w", err)
	}

	hash := dummyHash
	if credential != nil {
		hash = credential.PasswordHash
	}
	passwordOk := ComparePasswords(hash, credentials.PasswordPlain)
	if credential == nil || !passwordOk {
		return Token{}, invalid
	}

	return a.issue(ctx, credential.Username)
}

func (a *Authenticator) issue(ctx context.Context, username string) (Token, error) {
	issuedAt := a.now().UTC()
	expireAt := issuedAt.Add(a.ttl)

	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expireAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		traceID := contextutil.TraceIDFromContext(ctx)
		logging.Logger.Errorf("[TraceID=%s] | failed to sign token in Authenticator.issue() function | Error: %v", traceID, err)
		return Token{}, appErrors.ErrorResponse{
			Code:    appErrors.ErrInternal,
			Message: "Failed to generate token, try again later.",
		}
	}

	return Token{
		AccessToken: signed,
		TokenType:   TokenType,
		ExpireAt:    expireAt,
	}, nil
}

// Verify returns the token subject. It re-reads the credential store on
// every call so a token for a vanished user stops working.
func (a *Authenticator) Verify(ctx context.Context, tokenString string) (string, error) {
	invalid := appErrors.ErrorResponse{
		Code:    appErrors.ErrInvalidToken,
		Message: "Invalid token",
	}
	if tokenString == "" {
		return "", invalid
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			invalid.Message = "Token expired, please login again."
		}
		return "", invalid
	}
	if claims.Subject == "" {
		return "", invalid
	}

	credential, err := a.store.FindCredential(ctx, claims.Subject)
	if err != nil {
		return "", fmt.Errorf("failed to find token subject: %w", err)
	}
	if credential == nil {
		return "", appErrors.ErrorResponse{
			Code:    appErrors.ErrUnknownUser,
			Message: "User not found",
		}
	}
	return credential.Username, nil
}
