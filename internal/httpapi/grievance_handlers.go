package httpapi

import (
	"net/http"

	"cgms.org/internal/audit"
	"cgms.org/internal/auth"
	"cgms.org/internal/grievance"
)

type submitGrievanceRequest struct {
	Description string `json:"description" validate:"required"`
	Category    string `json:"category" validate:"required"`
	IsAnonymous bool   `json:"is_anonymous"`
}

type feedbackRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

// submittedGrievance adds the tracking code to the creation response. This is
// the only response that ever carries the code.
type submittedGrievance struct {
	grievance.Grievance
	TrackingCode string `json:"tracking_code,omitempty"`
}

func (a *API) handleSubmitGrievance(w http.ResponseWriter, r *http.Request) {
	var req submitGrievanceRequest
	if err := a.decodeValid(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	// Anonymous submissions are open to everyone, token or not; an
	// authenticated caller filing anonymously gets a record with no
	// submitter reference, same as an unauthenticated one.
	actor, authenticated := auth.ActorFromContext(r.Context())
	if !req.IsAnonymous && !authenticated {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	sub := grievance.SubmitRequest{
		Description: req.Description,
		Category:    req.Category,
		Anonymous:   req.IsAnonymous,
	}
	if !req.IsAnonymous {
		sub.SubmitterID = actor.AccountID
	}
	g, err := a.grievances.Submit(r.Context(), sub)
	if err != nil {
		handleGrievanceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "grievance.submitted", map[string]any{
		"grievance_id": g.ID,
		"anonymous":    g.IsAnonymous,
	})
	writeJSON(w, http.StatusCreated, submittedGrievance{Grievance: g, TrackingCode: g.TrackingCode})
}

func (a *API) handleListOwnGrievances(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}
	list, err := a.grievances.ListForSubmitter(r.Context(), actor.AccountID)
	if err != nil {
		handleGrievanceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"grievances": list})
}

func (a *API) handleGetGrievance(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}
	g, err := a.grievances.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		handleGrievanceError(w, r, err)
		return
	}
	if !auth.CanReadGrievance(actor, g.SubmitterID, g.Department) {
		writeError(w, r, http.StatusForbidden, "access denied")
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (a *API) handleGrievanceFeedback(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}
	var req feedbackRequest
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
	if !auth.CanAttachFeedback(actor, g.SubmitterID) {
		writeError(w, r, http.StatusForbidden, "access denied")
		return
	}
	g, err = a.grievances.AttachFeedback(r.Context(), id, req.Rating, req.Comment)
	if err != nil {
		handleGrievanceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "grievance.feedback", map[string]any{
		"grievance_id": g.ID,
		"rating":       req.Rating,
	})
	writeJSON(w, http.StatusOK, g)
}

func (a *API) handleTrack(w http.ResponseWriter, r *http.Request) {
	g, err := a.grievances.TrackByCode(r.Context(), r.PathValue("code"))
	if err != nil {
		handleGrievanceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (a *API) handleTrackFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := a.decodeValid(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	g, err := a.grievances.AttachFeedbackByTrackingCode(r.Context(), r.PathValue("code"), req.Rating, req.Comment)
	if err != nil {
		handleGrievanceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "grievance.feedback", map[string]any{
		"grievance_id": g.ID,
		"rating":       req.Rating,
		"anonymous":    true,
	})
	writeJSON(w, http.StatusOK, g)
}
