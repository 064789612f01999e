package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"

	"sigil/internal/identity"
	"sigil/internal/lockout"
	dErrors "sigil/pkg/domain-errors"
	"sigil/pkg/platform/httputil"
	"sigil/pkg/requestcontext"
)

// Authenticator validates a credential pair. A nil account with a nil error
// means the credentials were rejected.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*identity.Account, error)
}

// TokenIssuer signs access tokens for authenticated accounts.
type TokenIssuer interface {
	Issue(accountID int64, email string, role string) (string, error)
	Lifetime() time.Duration
}

// LockoutPolicy throttles repeated failures per credential and address.
type LockoutPolicy interface {
	Check(ctx context.Context, key string) (lockout.Status, error)
	RecordFailure(ctx context.Context, key string) error
	Clear(ctx context.Context, key string) error
}

// AuthHandler serves the login endpoint.
type AuthHandler struct {
	identity Authenticator
	tokens   TokenIssuer
	lockout  LockoutPolicy
	logger   *slog.Logger
}

func NewAuthHandler(identity Authenticator, tokens TokenIssuer, lockout LockoutPolicy, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{identity: identity, tokens: tokens, lockout: lockout, logger: logger}
}

// Register mounts the auth routes. Login stays public.
func (h *AuthHandler) Register(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[loginRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := validateLoginRequest(req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	key := lockout.Key(req.Email, requestcontext.ClientIP(ctx))
	status, err := h.lockout.Check(ctx, key)
	if err != nil {
		// The throttle store being down must not take logins with it.
		h.logger.ErrorContext(ctx, "lockout check failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	if status.Locked {
		h.logger.WarnContext(ctx, "login locked out",
			"retry_after", status.RetryAfter,
			"request_id", requestcontext.RequestID(ctx),
		)
		h.writeLocked(w, status.RetryAfter)
		return
	}

	account, err := h.identity.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		h.logger.ErrorContext(ctx, "authentication errored",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	if account == nil {
		if err := h.lockout.RecordFailure(ctx, key); err != nil {
			h.logger.ErrorContext(ctx, "lockout record failed",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials"))
		return
	}

	if err := h.lockout.Clear(ctx, key); err != nil {
		h.logger.ErrorContext(ctx, "lockout clear failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}

	token, err := h.tokens.Issue(account.ID, account.Email, account.Role)
	if err != nil {
		h.logger.ErrorContext(ctx, "token issue failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to issue token"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.tokens.Lifetime().Seconds()),
	})
}

func (h *AuthHandler) writeLocked(w http.ResponseWriter, retryAfter time.Duration) {
	seconds := int(retryAfter.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	httputil.WriteJSON(w, http.StatusTooManyRequests, map[string]string{
		"error":             "rate_limited",
		"error_description": "too many failed login attempts",
	})
}

func validateLoginRequest(req loginRequest) error {
	if !govalidator.StringLength(req.Email, "1", "255") || !govalidator.IsEmail(req.Email) {
		return dErrors.New(dErrors.CodeValidation, "invalid email")
	}
	if req.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "password is required")
	}
	return nil
}
