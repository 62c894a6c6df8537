package httpapi

import (
	"errors"
	"net/http"
	"time"

	"cgms.org/internal/audit"
	"cgms.org/internal/identity"
)

type registerRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type requestVerificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type verifyCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

type updateProfileRequest struct {
	Username *string `json:"username,omitempty" validate:"omitempty,min=1"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := a.decodeValid(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	account, err := a.identity.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrEmailTaken) {
			writeError(w, r, http.StatusConflict, "user already exists")
			return
		}
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	_ = audit.LogEvent(r.Context(), "identity.registered", map[string]any{
		"account_id": account.ID,
	})
	writeJSON(w, http.StatusCreated, account)
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := a.decodeValid(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	session, err := a.identity.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		// The legacy API distinguished these two failures; keep the contract.
		switch {
		case errors.Is(err, identity.ErrNotFound):
			writeError(w, r, http.StatusBadRequest, "user not found")
		case errors.Is(err, identity.ErrInvalidPassword):
			writeError(w, r, http.StatusBadRequest, "invalid password")
		default:
			writeError(w, r, http.StatusInternalServerError, "login failed")
		}
		return
	}
	_ = audit.LogEvent(r.Context(), "identity.login", map[string]any{
		"account_id": session.Account.ID,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"token":      session.Token,
		"role":       session.Account.Role,
		"expires_at": session.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

func (a *API) handleRequestVerification(w http.ResponseWriter, r *http.Request) {
	var req requestVerificationRequest
	if err := a.decodeValid(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	err := a.identity.RequestVerification(r.Context(), req.Email)
	if err != nil && !errors.Is(err, identity.ErrNotFound) {
		writeError(w, r, http.StatusInternalServerError, "could not send verification code")
		return
	}
	// Unknown addresses get the same ack, so the endpoint cannot be used to
	// probe which emails are registered.
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "if the account exists, a verification code has been sent",
	})
}

func (a *API) handleVerifyCode(w http.ResponseWriter, r *http.Request) {
	var req verifyCodeRequest
	if err := a.decodeValid(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.identity.VerifyCode(r.Context(), req.Email, req.Code); err != nil {
		if errors.Is(err, identity.ErrCodeInvalidOrExpired) || errors.Is(err, identity.ErrNotFound) {
			writeError(w, r, http.StatusBadRequest, "invalid or expired verification code")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "verification failed")
		return
	}
	_ = audit.LogEvent(r.Context(), "identity.verified", nil)
	writeJSON(w, http.StatusOK, map[string]any{"message": "email verified"})
}

func (a *API) handleProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}
	account, err := a.identity.Profile(r.Context(), actor.AccountID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "profile lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (a *API) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}
	var req updateProfileRequest
	if err := a.decodeValid(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	account, err := a.identity.UpdateProfile(r.Context(), actor.AccountID, identity.ProfileUpdate{
		Username: req.Username,
		Email:    req.Email,
	})
	if err != nil {
		if errors.Is(err, identity.ErrEmailTaken) {
			writeError(w, r, http.StatusConflict, "email already registered")
			return
		}
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	_ = audit.LogEvent(r.Context(), "identity.profile_updated", nil)
	writeJSON(w, http.StatusOK, account)
}
