package handler

import (
	"net/http"
	"strings"

	"github.com/bda-portal/identity-reconciliation-service/internal/compensation/service"
	"github.com/bda-portal/identity-reconciliation-service/internal/system/utils"
)

type CompensationHandler struct {
	service service.CompensationServiceInterface
}

func NewCompensationHandler() *CompensationHandler {
	return &CompensationHandler{
		service: service.GetCompensationService(),
	}
}

// ListPending handles GET /reconciliations/pending.
func (h *CompensationHandler) ListPending(w http.ResponseWriter, r *http.Request) {

	records, err := h.service.ListPending()
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	if records == nil {
		utils.WriteJSONResponse(w, http.StatusOK, []interface{}{})
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, records)
}

// Resolve handles POST /reconciliations/{record_id}/resolve.
func (h *CompensationHandler) Resolve(w http.ResponseWriter, r *http.Request) {

	recordID := extractRecordID(r.URL.Path)
	if recordID == "" {
		http.Error(w, "missing record id", http.StatusBadRequest)
		return
	}

	record, err := h.service.Resolve(recordID)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, record)
}

func extractRecordID(path string) string {
	parts := strings.Split(strings.TrimSuffix(path, "/"), "/")
	// /reconciliations/{record_id}/resolve
	if len(parts) >= 3 && parts[len(parts)-1] == "resolve" {
		return parts[len(parts)-2]
	}
	return ""
}
