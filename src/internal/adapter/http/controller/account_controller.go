package controller

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/ampla-fin/recon-ledger/src/internal/adapter/http/models"
	"github.com/ampla-fin/recon-ledger/src/internal/commons"
	"github.com/ampla-fin/recon-ledger/src/internal/logger"
	"github.com/ampla-fin/recon-ledger/src/internal/usecase/services"
)

type AccountController struct {
	registry *services.RegistryService
}

func NewAccountController(registry *services.RegistryService) *AccountController {
	return &AccountController{registry: registry}
}

func (c *AccountController) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	wrap := func(h http.HandlerFunc) http.Handler {
		if authMiddleware != nil {
			return authMiddleware(h)
		}
		return h
	}

	mux.Handle("/accounts", wrap(c.accounts))
	mux.Handle("/accounts/seed", wrap(c.seed))
}

func (c *AccountController) accounts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		c.createAccount(w, r)
	case http.MethodGet:
		c.listAccounts(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, commons.ErrorResponse[models.AccountResponse]("method not allowed"))
	}
}

func (c *AccountController) createAccount(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.AccountResponse]("invalid request body", err.Error()))
		return
	}
	logRequest(r, req)

	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.AccountResponse]("validation failed", err.Error()))
		return
	}

	created, err := c.registry.CreateAccount(r.Context(), req.ToAccount())
	if err != nil {
		logError(r, err, logger.Fields{"code": req.Code})
		writeJSON(w, statusFor(err), commons.ErrorResponse[models.AccountResponse]("account creation failed", err.Error()))
		return
	}

	response := commons.SuccessResponse("account created", models.NewAccountResponse(created))
	writeJSON(w, http.StatusCreated, response)
	logResponse(r, http.StatusCreated, response, start)
}

func (c *AccountController) listAccounts(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	tenantID := strings.TrimSpace(r.URL.Query().Get("tenantId"))
	if tenantID == "" {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.ListAccountsResponse]("validation failed", "tenantId query parameter is required"))
		return
	}

	accounts, err := c.registry.ListAccounts(r.Context(), tenantID)
	if err != nil {
		logError(r, err, logger.Fields{"tenantId": tenantID})
		writeJSON(w, statusFor(err), commons.ErrorResponse[models.ListAccountsResponse]("account listing failed", err.Error()))
		return
	}

	payload := models.ListAccountsResponse{Accounts: make([]models.AccountResponse, 0, len(accounts))}
	for _, account := range accounts {
		payload.Accounts = append(payload.Accounts, models.NewAccountResponse(account))
	}
	response := commons.SuccessResponse("accounts listed", payload)
	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

func (c *AccountController) seed(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, commons.ErrorResponse[models.SeedAccountsResponse]("method not allowed"))
		return
	}

	var req models.SeedAccountsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.SeedAccountsResponse]("invalid request body", err.Error()))
		return
	}
	logRequest(r, req)

	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.SeedAccountsResponse]("validation failed", err.Error()))
		return
	}

	created, err := c.registry.Seed(r.Context(), req.TenantID)
	if err != nil {
		logError(r, err, logger.Fields{"tenantId": req.TenantID})
		writeJSON(w, statusFor(err), commons.ErrorResponse[models.SeedAccountsResponse]("chart seed failed", err.Error()))
		return
	}

	response := commons.SuccessResponse("default chart seeded", models.SeedAccountsResponse{Created: created})
	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}
