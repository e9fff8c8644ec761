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

type MaintenanceController struct {
	posting service_interfaces.PostingService
}

func NewMaintenanceController(posting service_interfaces.PostingService) *MaintenanceController {
	return &MaintenanceController{posting: posting}
}

func (c *MaintenanceController) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	handler := http.HandlerFunc(c.cleanupOrphans)
	if authMiddleware != nil {
		mux.Handle("/maintenance/orphans", authMiddleware(handler))
		return
	}
	mux.Handle("/maintenance/orphans", handler)
}

func (c *MaintenanceController) cleanupOrphans(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, commons.ErrorResponse[models.CleanupOrphansResponse]("method not allowed"))
		return
	}

	var req models.CleanupOrphansRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.CleanupOrphansResponse]("invalid request body", err.Error()))
		return
	}
	logRequest(r, req)

	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.CleanupOrphansResponse]("validation failed", err.Error()))
		return
	}

	repaired, err := c.posting.CleanupOrphans(r.Context(), req.TenantID)
	if err != nil {
		logError(r, err, logger.Fields{"tenantId": req.TenantID, "repaired": repaired})
		writeJSON(w, statusFor(err), commons.ErrorResponse[models.CleanupOrphansResponse]("orphan cleanup failed", err.Error()))
		return
	}

	response := commons.SuccessResponse("orphan cleanup finished", models.CleanupOrphansResponse{Repaired: repaired})
	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}
