package httpapi

import (
	"net/http"

	"cgms.org/internal/audit"
	"cgms.org/internal/auth"
)

type departmentUpdateRequest struct {
	Status         string `json:"status" validate:"required"`
	ResolutionNote string `json:"resolution_note"`
}

func (a *API) handleDepartmentGrievances(w http.ResponseWriter, r *http.Request) {
	_, dept, ok := a.requireDepartment(w, r)
	if !ok {
		return
	}
	list, err := a.grievances.ListForDepartment(r.Context(), dept)
	if err != nil {
		handleGrievanceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"grievances": list})
}

// handleDepartmentUpdateGrievance lets staff resolve grievances assigned to
// their own department. All other transitions stay with the administrator.
func (a *API) handleDepartmentUpdateGrievance(w http.ResponseWriter, r *http.Request) {
	actor, _, ok := a.requireDepartment(w, r)
	if !ok {
		return
	}
	var req departmentUpdateRequest
	if err := a.decodeValid(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	id := r.PathValue("id")
	g, err := a.grievances.Get(r.Context(), id)
	if err != nil {
		handleGrievanceError(w, r, err)
		return
	}
	if !auth.CanTransitionGrievance(actor, g.Department, req.Status) {
		writeError(w, r, http.StatusForbidden, "access denied")
		return
	}
	g, err = a.grievances.UpdateStatus(r.Context(), id, req.Status, "", req.ResolutionNote)
	if err != nil {
		handleGrievanceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "grievance.status_updated", map[string]any{
		"grievance_id": g.ID,
		"status":       string(g.Status),
	})
	writeJSON(w, http.StatusOK, g)
}
