package controller

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/ampla-fin/recon-ledger/src/internal/adapter/http/models"
	"github.com/ampla-fin/recon-ledger/src/internal/commons"
	"github.com/ampla-fin/recon-ledger/src/internal/logger"
	"github.com/ampla-fin/recon-ledger/src/internal/usecase/service_interfaces"
)

type LedgerController struct {
	posting    service_interfaces.PostingService
	aggregator service_interfaces.AggregatorService
}

func NewLedgerController(posting service_interfaces.PostingService, aggregator service_interfaces.AggregatorService) *LedgerController {
	return &LedgerController{posting: posting, aggregator: aggregator}
}

func (c *LedgerController) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	wrap := func(h http.HandlerFunc) http.Handler {
		if authMiddleware != nil {
			return authMiddleware(h)
		}
		return h
	}

	mux.Handle("/ledger/entries", wrap(c.entries))
	mux.Handle("/ledger/entries/reverse", wrap(c.reverseEntry))
	mux.Handle("/ledger/balances", wrap(c.balances))
	mux.Handle("/ledger/trial-balance", wrap(c.trialBalance))
	mux.Handle("/ledger/cash-flow", wrap(c.cashFlow))
}

func (c *LedgerController) entries(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		c.postEntry(w, r)
	case http.MethodDelete:
		c.deleteEntry(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, commons.ErrorResponse[models.LedgerEntryResponse]("method not allowed"))
	}
}

func (c *LedgerController) postEntry(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.PostEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.LedgerEntryResponse]("invalid request body", err.Error()))
		return
	}
	logRequest(r, req)

	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.LedgerEntryResponse]("validation failed", err.Error()))
		return
	}

	var entry models.LedgerEntryResponse
	if strings.TrimSpace(req.EventType) == models.EventReceivablePaid {
		posted, err := c.posting.PostMovement(r.Context(), req.TenantID, req.MovementID)
		if err != nil {
			logError(r, err, logger.Fields{"movementId": req.MovementID})
			writeJSON(w, statusFor(err), commons.ErrorResponse[models.LedgerEntryResponse]("posting failed", err.Error()))
			return
		}
		entry = models.NewLedgerEntryResponse(posted)
	} else {
		event, err := req.ToEvent()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.LedgerEntryResponse]("validation failed", err.Error()))
			return
		}

		posted, err := c.posting.Post(r.Context(), event)
		if err != nil {
			logError(r, err, logger.Fields{"eventType": req.EventType})
			writeJSON(w, statusFor(err), commons.ErrorResponse[models.LedgerEntryResponse]("posting failed", err.Error()))
			return
		}
		entry = models.NewLedgerEntryResponse(posted)
	}

	response := commons.SuccessResponse("entry posted", entry)
	writeJSON(w, http.StatusCreated, response)
	logResponse(r, http.StatusCreated, response, start)
}

func (c *LedgerController) deleteEntry(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	tenantID := strings.TrimSpace(r.URL.Query().Get("tenantId"))
	entryID := strings.TrimSpace(r.URL.Query().Get("entryId"))
	actor := strings.TrimSpace(r.URL.Query().Get("actor"))
	if tenantID == "" || entryID == "" || actor == "" {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[struct{}]("validation failed", "tenantId, entryId and actor query parameters are required"))
		return
	}

	if err := c.posting.Delete(r.Context(), tenantID, entryID, actor); err != nil {
		logError(r, err, logger.Fields{"entryId": entryID})
		writeJSON(w, statusFor(err), commons.ErrorResponse[struct{}]("entry delete failed", err.Error()))
		return
	}

	response := commons.SuccessResponse("entry deleted", struct{}{})
	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

func (c *LedgerController) reverseEntry(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, commons.ErrorResponse[models.LedgerEntryResponse]("method not allowed"))
		return
	}

	var req models.ReverseEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.LedgerEntryResponse]("invalid request body", err.Error()))
		return
	}
	logRequest(r, req)

	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.LedgerEntryResponse]("validation failed", err.Error()))
		return
	}

	reversal, err := c.posting.Reverse(r.Context(), req.TenantID, req.EntryID, req.Actor)
	if err != nil {
		logError(r, err, logger.Fields{"entryId": req.EntryID})
		writeJSON(w, statusFor(err), commons.ErrorResponse[models.LedgerEntryResponse]("reversal failed", err.Error()))
		return
	}

	response := commons.SuccessResponse("entry reversed", models.NewLedgerEntryResponse(reversal))
	writeJSON(w, http.StatusCreated, response)
	logResponse(r, http.StatusCreated, response, start)
}

// periodQuery pulls the common tenantId/from/to query parameters.
func periodQuery(r *http.Request) (string, time.Time, time.Time, bool) {
	tenantID := strings.TrimSpace(r.URL.Query().Get("tenantId"))
	from, errFrom := time.Parse("2006-01-02", r.URL.Query().Get("from"))
	to, errTo := time.Parse("2006-01-02", r.URL.Query().Get("to"))

	if tenantID == "" || errFrom != nil || errTo != nil || to.Before(from) {
		return "", time.Time{}, time.Time{}, false
	}
	return tenantID, from, to, true
}

func (c *LedgerController) balances(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, commons.ErrorResponse[models.BalancesResponse]("method not allowed"))
		return
	}

	tenantID, from, to, ok := periodQuery(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.BalancesResponse]("validation failed", "tenantId, from and to query parameters are required, dates in YYYY-MM-DD"))
		return
	}
	account := strings.TrimSpace(r.URL.Query().Get("account"))

	// rollup=1 aggregates the synthetic account into a single row.
	if r.URL.Query().Get("rollup") == "1" && account != "" {
		balance, err := c.aggregator.RolledUp(r.Context(), tenantID, account, from, to)
		if err != nil {
			logError(r, err, logger.Fields{"account": account})
			writeJSON(w, statusFor(err), commons.ErrorResponse[models.BalancesResponse]("balance aggregation failed", err.Error()))
			return
		}
		response := commons.SuccessResponse("balances aggregated", models.BalancesResponse{
			Balances: []models.AccountBalanceResponse{models.NewAccountBalanceResponse(balance)},
		})
		writeJSON(w, http.StatusOK, response)
		logResponse(r, http.StatusOK, response, start)
		return
	}

	balances, err := c.aggregator.Balances(r.Context(), tenantID, account, from, to)
	if err != nil {
		logError(r, err, logger.Fields{"account": account})
		writeJSON(w, statusFor(err), commons.ErrorResponse[models.BalancesResponse]("balance aggregation failed", err.Error()))
		return
	}

	payload := models.BalancesResponse{Balances: make([]models.AccountBalanceResponse, 0, len(balances))}
	for _, balance := range balances {
		payload.Balances = append(payload.Balances, models.NewAccountBalanceResponse(balance))
	}
	response := commons.SuccessResponse("balances aggregated", payload)
	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

func (c *LedgerController) trialBalance(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, commons.ErrorResponse[models.TrialBalanceResponse]("method not allowed"))
		return
	}

	tenantID, from, to, ok := periodQuery(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.TrialBalanceResponse]("validation failed", "tenantId, from and to query parameters are required, dates in YYYY-MM-DD"))
		return
	}

	tb, err := c.aggregator.TrialBalance(r.Context(), tenantID, from, to)
	if err != nil {
		logError(r, err, nil)
		writeJSON(w, statusFor(err), commons.ErrorResponse[models.TrialBalanceResponse]("trial balance failed", err.Error()))
		return
	}

	response := commons.SuccessResponse("trial balance computed", models.NewTrialBalanceResponse(tb))
	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

func (c *LedgerController) cashFlow(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, commons.ErrorResponse[models.CashFlowResponse]("method not allowed"))
		return
	}

	tenantID, from, to, ok := periodQuery(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.CashFlowResponse]("validation failed", "tenantId, from and to query parameters are required, dates in YYYY-MM-DD"))
		return
	}

	cf, err := c.aggregator.CashFlow(r.Context(), tenantID, from, to)
	if err != nil {
		logError(r, err, nil)
		writeJSON(w, statusFor(err), commons.ErrorResponse[models.CashFlowResponse]("cash flow failed", err.Error()))
		return
	}

	response := commons.SuccessResponse("cash flow computed", models.NewCashFlowResponse(cf))
	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}
