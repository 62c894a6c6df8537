package httpapi

import (
	"errors"
	"net/http"

	"cgms.org/internal/audit"
	"cgms.org/internal/department"
	"cgms.org/internal/grievance"
)

type adminUpdateGrievanceRequest struct {
	Status         string `json:"status" validate:"required"`
	Department     string `json:"department"`
	ResolutionNote string `json:"resolution_note"`
}

type createDepartmentRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

type sendEmailRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Department string `json:"department" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

func (a *API) handleAdminGrievances(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}
	filter := grievance.Filter{
		Status:   r.URL.Query().Get("status"),
		Category: r.URL.Query().Get("category"),
	}
	list, err := a.grievances.List(r.Context(), filter)
	if err != nil {
		handleGrievanceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"grievances": list})
}

func (a *API) handleAdminUpdateGrievance(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}
	var req adminUpdateGrievanceRequest
	if err := a.decodeValid(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	g, err := a.grievances.UpdateStatus(r.Context(), r.PathValue("id"), req.Status, req.Department, req.ResolutionNote)
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

func (a *API) handleGrievanceStats(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}
	stats, err := a.grievances.Stats(r.Context())
	if err != nil {
		handleGrievanceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *API) handleUserCount(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}
	n, err := a.identity.Count(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": n})
}

func (a *API) handleCreateDepartment(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}
	var req createDepartmentRequest
	if err := a.decodeValid(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	dep, err := a.departments.Provision(r.Context(), req.Name, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, department.ErrNameTaken):
			writeError(w, r, http.StatusConflict, "department already exists")
		case errors.Is(err, department.ErrInvalidInput):
			writeError(w, r, http.StatusBadRequest, err.Error())
		default:
			writeError(w, r, http.StatusInternalServerError, "department provisioning failed")
		}
		return
	}
	_ = audit.LogEvent(r.Context(), "department.created", map[string]any{
		"department_id": dep.ID,
		"name":          dep.Name,
	})
	writeJSON(w, http.StatusCreated, dep)
}

func (a *API) handleListDepartments(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}
	list, err := a.departments.List(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"departments": list})
}

// handleSendEmail re-sends staff credentials through the mailer. Kept for
// operators who need to re-deliver after a mailbox problem.
func (a *API) handleSendEmail(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}
	if a.mailer == nil {
		writeError(w, r, http.StatusServiceUnavailable, "mailer not configured")
		return
	}
	var req sendEmailRequest
	if err := a.decodeValid(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.mailer.SendDepartmentCredentials(r.Context(), req.Email, req.Department, req.Password); err != nil {
		writeError(w, r, http.StatusInternalServerError, "email delivery failed")
		return
	}
	_ = audit.LogEvent(r.Context(), "department.credentials_resent", map[string]any{
		"department": req.Department,
	})
	writeJSON(w, http.StatusOK, map[string]any{"message": "email sent"})
}

func (a *API) handleFeedbackStats(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}
	stats, err := a.grievances.FeedbackStats(r.Context())
	if err != nil {
		handleGrievanceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"departments": stats})
}
