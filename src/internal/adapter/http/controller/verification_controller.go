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

type VerificationController struct {
	verifier service_interfaces.VerifierService
}

func NewVerificationController(verifier service_interfaces.VerifierService) *VerificationController {
	return &VerificationController{verifier: verifier}
}

func (c *VerificationController) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	wrap := func(h http.HandlerFunc) http.Handler {
		if authMiddleware != nil {
			return authMiddleware(h)
		}
		return h
	}

	mux.Handle("/reconciliation/verify", wrap(c.verify))
	mux.Handle("/reconciliation/close-period", wrap(c.closePeriod))
}

func (c *VerificationController) verify(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, commons.ErrorResponse[models.VerificationResponse]("method not allowed"))
		return
	}

	var req models.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.VerificationResponse]("invalid request body", err.Error()))
		return
	}
	logRequest(r, req)

	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.VerificationResponse]("validation failed", err.Error()))
		return
	}

	from, to, err := req.Period()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.VerificationResponse]("validation failed", err.Error()))
		return
	}

	report, err := c.verifier.Verify(r.Context(), req.TenantID, from, to)
	if err != nil {
		logError(r, err, logger.Fields{"tenantId": req.TenantID})
		writeJSON(w, statusFor(err), commons.ErrorResponse[models.VerificationResponse]("verification failed", err.Error()))
		return
	}

	response := commons.SuccessResponse("verification finished", models.NewVerificationResponse(report))
	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

func (c *VerificationController) closePeriod(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, commons.ErrorResponse[models.VerificationResponse]("method not allowed"))
		return
	}

	var req models.ClosePeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.VerificationResponse]("invalid request body", err.Error()))
		return
	}
	logRequest(r, req)

	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.VerificationResponse]("validation failed", err.Error()))
		return
	}

	from, to, err := req.Period()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.VerificationResponse]("validation failed", err.Error()))
		return
	}

	report, err := c.verifier.ClosePeriod(r.Context(), req.TenantID, from, to, req.Actor, req.Force)
	if err != nil {
		logError(r, err, logger.Fields{"tenantId": req.TenantID, "force": req.Force})
		// A refused close still carries the report the operator needs.
		response := commons.ErrorResponse[models.VerificationResponse]("period close refused", err.Error())
		payload := models.NewVerificationResponse(report)
		response.Data = &payload
		writeJSON(w, http.StatusConflict, response)
		return
	}

	response := commons.SuccessResponse("period closed", models.NewVerificationResponse(report))
	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}
