package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"

	"sigil/internal/identity"
	"sigil/internal/platform/middleware"
	dErrors "sigil/pkg/domain-errors"
	"sigil/pkg/platform/httputil"
)

// AccountService is the account management surface the handler needs.
type AccountService interface {
	CreateAccount(ctx context.Context, req identity.CreateAccount) (*identity.Account, error)
	ListAccounts(ctx context.Context) ([]identity.Account, error)
	GetAccount(ctx context.Context, id int64) (*identity.Account, error)
	UpdateAccount(ctx context.Context, id int64, req identity.UpdateAccount) error
	DeleteAccount(ctx context.Context, id int64) error
}

// AccountHandler serves account CRUD. Registration stays public; the rest
// requires a valid bearer token.
type AccountHandler struct {
	accounts AccountService
	verifier middleware.TokenVerifier
	logger   *slog.Logger
}

func NewAccountHandler(accounts AccountService, verifier middleware.TokenVerifier, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, verifier: verifier, logger: logger}
}

func (h *AccountHandler) Register(r chi.Router) {
	r.Post("/accounts", h.handleCreate)
	r.Group(func(protected chi.Router) {
		protected.Use(middleware.RequireAuth(h.verifier, h.logger))
		protected.Get("/accounts", h.handleList)
		protected.Get("/accounts/{id}", h.handleGet)
		protected.Patch("/accounts/{id}", h.handleUpdate)
		protected.Delete("/accounts/{id}", h.handleDelete)
	})
}

type createAccountRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type updateAccountRequest struct {
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Role      *string `json:"role"`
	Active    *bool   `json:"active"`
}

func (h *AccountHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[createAccountRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := validateCreateAccountRequest(req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	account, err := h.accounts.CreateAccount(r.Context(), identity.CreateAccount{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toAccountResponse(account))
}

func (h *AccountHandler) handleList(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.ListAccounts(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]accountResponse, len(accounts))
	for i := range accounts {
		out[i] = toAccountResponse(&accounts[i])
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *AccountHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := accountID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	account, err := h.accounts.GetAccount(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAccountResponse(account))
}

func (h *AccountHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := accountID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[updateAccountRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := validateUpdateAccountRequest(req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	err = h.accounts.UpdateAccount(r.Context(), id, identity.UpdateAccount{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
		Active:    req.Active,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	account, err := h.accounts.GetAccount(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAccountResponse(account))
}

func (h *AccountHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := accountID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.accounts.DeleteAccount(r.Context(), id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func accountID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid account id")
	}
	return id, nil
}

func validateCreateAccountRequest(req createAccountRequest) error {
	if !govalidator.StringLength(req.Email, "1", "255") || !govalidator.IsEmail(req.Email) {
		return dErrors.New(dErrors.CodeValidation, "invalid email")
	}
	if !govalidator.StringLength(req.Password, "8", "72") {
		return dErrors.New(dErrors.CodeValidation, "password must be between 8 and 72 characters")
	}
	if len(req.FirstName) > 100 || len(req.LastName) > 100 {
		return dErrors.New(dErrors.CodeValidation, "name must be at most 100 characters")
	}
	return nil
}

func validateUpdateAccountRequest(req updateAccountRequest) error {
	if req.Email != nil && (!govalidator.StringLength(*req.Email, "1", "255") || !govalidator.IsEmail(*req.Email)) {
		return dErrors.New(dErrors.CodeValidation, "invalid email")
	}
	if req.Password != nil && !govalidator.StringLength(*req.Password, "8", "72") {
		return dErrors.New(dErrors.CodeValidation, "password must be between 8 and 72 characters")
	}
	if req.Role != nil && *req.Role == "" {
		return dErrors.New(dErrors.CodeValidation, "role cannot be empty")
	}
	if (req.FirstName != nil && len(*req.FirstName) > 100) || (req.LastName != nil && len(*req.LastName) > 100) {
		return dErrors.New(dErrors.CodeValidation, "name must be at most 100 characters")
	}
	return nil
}
