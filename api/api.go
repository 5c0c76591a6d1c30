package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/0xcafe-io/iz"
	appErrors "github.com/fatali-fataliyev/bank_ledger/customErrors"
	"github.com/fatali-fataliyev/bank_ledger/internal/auth"
	"github.com/fatali-fataliyev/bank_ledger/internal/contextutil"
	"github.com/fatali-fataliyev/bank_ledger/internal/ledger"
	"github.com/fatali-fataliyev/bank_ledger/logging"
)

const healthTimeout = 2 * time.Second

type Authenticator interface {
	Register(ctx context.Context, newCredential auth.NewCredential) error
	Login(ctx context.Context, credentials auth.UserCredentialsPure) (auth.Token, error)
	Verify(ctx context.Context, token string) (string, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Api struct {
	Auth    Authenticator
	Service *ledger.Service
	Storage Pinger
	Limiter RateLimiter
	Proxies TrustedProxies
}

func NewApi(authenticator Authenticator, service *ledger.Service, storage Pinger, limiter RateLimiter) *Api {
	return &Api{
		Auth:    authenticator,
		Service: service,
		Storage: storage,
		Limiter: limiter,
	}
}

// Register mounts every endpoint on mux. The trailing slash variants keep
// older clients working.
func (api *Api) Register(mux *http.ServeMux) {
	signup := api.rateLimited("signup", iz.Bind(api.SignupHandler))
	login := api.rateLimited("login", iz.Bind(api.LoginHandler))

	// USER ENDPOINTS.
	mux.HandleFunc("POST /signup", signup)     // Create User
	mux.HandleFunc("POST /signup/{$}", signup) // Create User
	mux.HandleFunc("POST /login", login)       // Login User
	mux.HandleFunc("POST /login/{$}", login)   // Login User

	// TRANSACTION ENDPOINTS.
	mux.HandleFunc("POST /transactions", iz.Bind(api.CreateTransactionHandler))               // Create Transaction
	mux.HandleFunc("POST /transactions/{$}", iz.Bind(api.CreateTransactionHandler))           // Create Transaction
	mux.HandleFunc("GET /transactions", iz.Bind(api.ListTransactionsHandler))                 // Get Transactions with date filters
	mux.HandleFunc("GET /transactions/summary", iz.Bind(api.SummaryHandler))                  // Debit/credit totals per month, year or details
	mux.HandleFunc("GET /transactions/{reference}", iz.Bind(api.GetTransactionHandler))       // Get Transaction by reference
	mux.HandleFunc("PUT /transactions/{reference}", iz.Bind(api.UpdateTransactionHandler))    // Replace Transaction
	mux.HandleFunc("DELETE /transactions/{reference}", iz.Bind(api.DeleteTransactionHandler)) // Delete Transaction

	mux.HandleFunc("GET /health", iz.Bind(api.HealthHandler))
}

// bearerToken reads the Authorization header. "Bearer <token>" is the
// expected form; a bare token is accepted as well.
func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) >= 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

func (api *Api) tokenFrom(r *iz.Request) (string, error) {
	token := bearerToken(r.Header.Get("Authorization"))
	if token == "" {
		return "", appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidToken,
			Message: "Authorization header is required.",
		}
	}
	return token, nil
}

func respondError(ctx context.Context, err error) iz.Responder {
	status := httpStatusFromError(err)
	if status == 500 {
		traceID := contextutil.TraceIDFromContext(ctx)
		logging.Logger.Errorf("[TraceID=%s] | request failed | Error: %v", traceID, err)
	}
	return iz.Respond().Status(status).JSON(errorResponse(err))
}

// invalidBody reports an undecodable transaction body. The token is still
// checked first so that unauthenticated callers always see 401.
func (api *Api) invalidBody(ctx context.Context, token string, decodeErr error) iz.Responder {
	if _, err := api.Auth.Verify(ctx, token); err != nil {
		return respondError(ctx, err)
	}
	return respondError(ctx, appErrors.ErrorResponse{
		Code:    appErrors.ErrInvalidPayload,
		Message: fmt.Sprintf("invalid request body: %v", decodeErr),
	})
}

func (api *Api) SignupHandler(r *iz.Request) iz.Responder {
	ctx := r.Context()

	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return respondError(ctx, appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: "invalid request body",
		})
	}

	newCredential := auth.NewCredential{
		Username:      req.Username,
		PasswordPlain: req.Password,
	}
	if err := api.Auth.Register(ctx, newCredential); err != nil {
		return respondError(ctx, err)
	}

	return iz.Respond().Status(200).JSON(MessageResponse{Message: "User registered successfully"})
}

func (api *Api) LoginHandler(r *iz.Request) iz.Responder {
	ctx := r.Context()

	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return respondError(ctx, appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: "invalid request body",
		})
	}

	credentials := auth.UserCredentialsPure{
		Username:      req.Username,
		PasswordPlain: req.Password,
	}
	token, err := api.Auth.Login(ctx, credentials)
	if err != nil {
		return respondError(ctx, err)
	}

	return iz.Respond().Status(200).JSON(LoginResponse{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresAt:   token.ExpireAt.UTC(),
	})
}

func (api *Api) CreateTransactionHandler(r *iz.Request) iz.Responder {
	ctx := r.Context()
	token, err := api.tokenFrom(r)
	if err != nil {
		return respondError(ctx, err)
	}

	var req TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return api.invalidBody(ctx, token, err)
	}

	referenceNo, err := api.Service.CreateTransaction(ctx, token, req.toLedger())
	if err != nil {
		return respondError(ctx, err)
	}
	return iz.Respond().Status(201).JSON(CreateTransactionResponse{ReferenceNo: referenceNo})
}

func (api *Api) GetTransactionHandler(r *iz.Request) iz.Responder {
	ctx := r.Context()
	token, err := api.tokenFrom(r)
	if err != nil {
		return respondError(ctx, err)
	}

	txn, err := api.Service.GetTransaction(ctx, token, r.PathValue("reference"))
	if err != nil {
		return respondError(ctx, err)
	}
	return iz.Respond().Status(200).JSON(TransactionToHttp(txn))
}

func (api *Api) UpdateTransactionHandler(r *iz.Request) iz.Responder {
	ctx := r.Context()
	token, err := api.tokenFrom(r)
	if err != nil {
		return respondError(ctx, err)
	}

	var req TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return api.invalidBody(ctx, token, err)
	}

	referenceNo := r.PathValue("reference")
	if err := api.Service.UpdateTransaction(ctx, token, referenceNo, req.toLedger()); err != nil {
		return respondError(ctx, err)
	}

	msg := fmt.Sprintf("Transaction %s updated successfully", referenceNo)
	return iz.Respond().Status(200).JSON(MessageResponse{Message: msg})
}

func (api *Api) DeleteTransactionHandler(r *iz.Request) iz.Responder {
	ctx := r.Context()
	token, err := api.tokenFrom(r)
	if err != nil {
		return respondError(ctx, err)
	}

	referenceNo := r.PathValue("reference")
	if err := api.Service.DeleteTransaction(ctx, token, referenceNo); err != nil {
		return respondError(ctx, err)
	}

	msg := fmt.Sprintf("Transaction %s deleted successfully", referenceNo)
	return iz.Respond().Status(200).JSON(MessageResponse{Message: msg})
}

func listRequestFrom(r *iz.Request) ledger.TransactionListRequest {
	params := r.URL.Query()
	return ledger.TransactionListRequest{
		From: params.Get("from"),
		To:   params.Get("to"),
	}
}

func (api *Api) ListTransactionsHandler(r *iz.Request) iz.Responder {
	ctx := r.Context()
	token, err := api.tokenFrom(r)
	if err != nil {
		return respondError(ctx, err)
	}

	ts, err := api.Service.ListTransactions(ctx, token, listRequestFrom(r))
	if err != nil {
		return respondError(ctx, err)
	}

	resp := ListTransactionResponse{Transactions: make([]TransactionItem, 0, len(ts))}
	for _, t := range ts {
		resp.Transactions = append(resp.Transactions, TransactionToHttp(t))
	}
	return iz.Respond().Status(200).JSON(resp)
}

func (api *Api) SummaryHandler(r *iz.Request) iz.Responder {
	ctx := r.Context()
	token, err := api.tokenFrom(r)
	if err != nil {
		return respondError(ctx, err)
	}

	groupBy := r.URL.Query().Get("group_by")
	summaries, err := api.Service.Summarize(ctx, token, listRequestFrom(r), groupBy)
	if err != nil {
		return respondError(ctx, err)
	}

	grouping, _ := ledger.ParseSummaryGrouping(groupBy)
	resp := SummaryResponse{GroupBy: string(grouping), Groups: make([]SummaryItem, 0, len(summaries))}
	for _, s := range summaries {
		resp.Groups = append(resp.Groups, SummaryToHttp(s))
	}
	return iz.Respond().Status(200).JSON(resp)
}

func (api *Api) HealthHandler(r *iz.Request) iz.Responder {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := HealthResponse{Status: "ok", Storage: api.Service.StorageType}
	if err := api.Storage.Ping(ctx); err != nil {
		traceID := contextutil.TraceIDFromContext(ctx)
		logging.Logger.Warnf("[TraceID=%s] | storage health check failed | Error: %v", traceID, err)
		resp.Status = "unavailable"
		return iz.Respond().Status(503).JSON(resp)
	}
	return iz.Respond().Status(200).JSON(resp)
}
