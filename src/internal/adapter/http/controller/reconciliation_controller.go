package controller

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ampla-fin/recon-ledger/src/internal/adapter/http/models"
	"github.com/ampla-fin/recon-ledger/src/internal/commons"
	"github.com/ampla-fin/recon-ledger/src/internal/logger"
	"github.com/ampla-fin/recon-ledger/src/internal/usecase/service_interfaces"
)

type ReconciliationController struct {
	matching service_interfaces.MatchingService
	split    service_interfaces.SplitService
}

func NewReconciliationController(matching service_interfaces.MatchingService, split service_interfaces.SplitService) *ReconciliationController {
	return &ReconciliationController{matching: matching, split: split}
}

func (c *ReconciliationController) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	wrap := func(h http.HandlerFunc) http.Handler {
		if authMiddleware != nil {
			return authMiddleware(h)
		}
		return h
	}

	mux.Handle("/reconciliation/matches", wrap(c.proposeMatches))
	mux.Handle("/reconciliation/reject", wrap(c.rejectMovement))
	mux.Handle("/reconciliation/allocations", wrap(c.resolveSplit))
	mux.Handle("/reconciliation/settlements", wrap(c.resolveSettlementDay))
}

func (c *ReconciliationController) rejectMovement(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, commons.ErrorResponse[models.MovementResponse]("method not allowed"))
		return
	}

	var req models.RejectMovementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.MovementResponse]("invalid request body", err.Error()))
		return
	}
	logRequest(r, req)

	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.MovementResponse]("validation failed", err.Error()))
		return
	}

	movement, err := c.matching.Reject(r.Context(), req.TenantID, req.MovementID)
	if err != nil {
		logError(r, err, logger.Fields{"movementId": req.MovementID})
		writeJSON(w, statusFor(err), commons.ErrorResponse[models.MovementResponse]("movement rejection failed", err.Error()))
		return
	}

	response := commons.SuccessResponse("movement rejected", models.NewMovementResponse(movement))
	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

func (c *ReconciliationController) proposeMatches(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, commons.ErrorResponse[models.ProposeMatchesResponse]("method not allowed"))
		return
	}

	var req models.ProposeMatchesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.ProposeMatchesResponse]("invalid request body", err.Error()))
		return
	}
	logRequest(r, req)

	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.ProposeMatchesResponse]("validation failed", err.Error()))
		return
	}

	includeBelowFloor := r.URL.Query().Get("debug") == "1"
	candidates, err := c.matching.ProposeForMovement(r.Context(), req.TenantID, req.MovementID, includeBelowFloor)
	if err != nil {
		logError(r, err, logger.Fields{"movementId": req.MovementID})
		writeJSON(w, statusFor(err), commons.ErrorResponse[models.ProposeMatchesResponse]("match proposal failed", err.Error()))
		return
	}

	response := commons.SuccessResponse("candidates scored", models.NewProposeMatchesResponse(candidates))
	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

func (c *ReconciliationController) resolveSplit(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, commons.ErrorResponse[models.AllocationSetResponse]("method not allowed"))
		return
	}

	var req models.ResolveSplitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.AllocationSetResponse]("invalid request body", err.Error()))
		return
	}
	logRequest(r, req)

	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.AllocationSetResponse]("validation failed", err.Error()))
		return
	}

	selections, err := req.ToSelections()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.AllocationSetResponse]("validation failed", err.Error()))
		return
	}

	set, err := c.split.Resolve(r.Context(), req.TenantID, req.MovementID, selections)
	if err != nil {
		logError(r, err, logger.Fields{"movementId": req.MovementID})
		writeJSON(w, statusFor(err), commons.ErrorResponse[models.AllocationSetResponse]("split resolution failed", err.Error()))
		return
	}

	response := commons.SuccessResponse("allocation set applied", models.NewAllocationSetResponse(set))
	writeJSON(w, http.StatusCreated, response)
	logResponse(r, http.StatusCreated, response, start)
}

func (c *ReconciliationController) resolveSettlementDay(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, commons.ErrorResponse[models.SettlementDayResponse]("method not allowed"))
		return
	}

	var req models.ResolveSettlementDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.SettlementDayResponse]("invalid request body", err.Error()))
		return
	}
	logRequest(r, req)

	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.SettlementDayResponse]("validation failed", err.Error()))
		return
	}

	day, selections, err := req.ToSelections()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.SettlementDayResponse]("validation failed", err.Error()))
		return
	}

	sets, err := c.split.ResolveSettlementDay(r.Context(), req.TenantID, day, selections)
	if err != nil {
		logError(r, err, logger.Fields{"day": req.Day})
		writeJSON(w, statusFor(err), commons.ErrorResponse[models.SettlementDayResponse]("settlement resolution failed", err.Error()))
		return
	}

	payload := models.SettlementDayResponse{Day: req.Day, Sets: make([]models.AllocationSetResponse, 0, len(sets))}
	for _, set := range sets {
		payload.Sets = append(payload.Sets, models.NewAllocationSetResponse(set))
	}
	response := commons.SuccessResponse("settlement day resolved", payload)
	writeJSON(w, http.StatusCreated, response)
	logResponse(r, http.StatusCreated, response, start)
}
