package handler

import (
	"net/http"

	"github.com/bda-portal/identity-reconciliation-service/internal/healthmonitor/provider"
	"github.com/bda-portal/identity-reconciliation-service/internal/system/utils"
)

type HealthHandler struct {
	provider provider.HealthMonitorProviderInterface
}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{
		provider: provider.NewHealthMonitorProvider(),
	}
}

// Liveness handles GET /health/liveness. Process-level only; no probes.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {

	utils.WriteJSONResponse(w, http.StatusOK, map[string]string{"status": "alive"})
}

// Status handles GET /health/status: the cached snapshot, non-blocking.
func (h *HealthHandler) Status(w http.ResponseWriter, r *http.Request) {

	snapshot := h.provider.GetHealthMonitor().CachedStatus()
	if snapshot == nil {
		utils.WriteJSONResponse(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unknown",
			"detail": "no health check has completed yet",
		})
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, snapshot)
}

// ForceCheck handles POST /health/check: probe now, bypass the timer.
func (h *HealthHandler) ForceCheck(w http.ResponseWriter, r *http.Request) {

	snapshot := h.provider.GetHealthMonitor().ForceCheck(r.Context())
	utils.WriteJSONResponse(w, http.StatusOK, snapshot)
}
