// Package httpapi is the HTTP surface of the grievance service.
package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"cgms.org/internal/auth"
	"cgms.org/internal/department"
	"cgms.org/internal/grievance"
	"cgms.org/internal/identity"
	"cgms.org/internal/obs"
)

// ReadyProbe checks the dependencies /readyz reports on.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Deps carries the services the API dispatches into.
type Deps struct {
	Tokens      *auth.TokenService
	Identity    *identity.Service
	Grievances  *grievance.Service
	Departments *department.Service
	Mailer      department.CredentialsNotifier
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	tokens      *auth.TokenService
	identity    *identity.Service
	grievances  *grievance.Service
	departments *department.Service
	mailer      department.CredentialsNotifier
	validate    *validator.Validate

	maxBodyBytes int64
	rateBurst    int
	ratePerSec   int
}

// Option adjusts API behavior at construction.
type Option func(*API)

// WithLimits overrides the default body size and rate limits.
func WithLimits(maxBodyBytes int64, burst, perSecond int) Option {
	return func(a *API) {
		if maxBodyBytes > 0 {
			a.maxBodyBytes = maxBodyBytes
		}
		if burst > 0 {
			a.rateBurst = burst
		}
		if perSecond > 0 {
			a.ratePerSec = perSecond
		}
	}
}

func New(rp ReadyProbe, version string, deps Deps, opts ...Option) *API {
	a := &API{
		mux:        http.NewServeMux(),
		readyProbe: rp,
		version:    version,

		tokens:      deps.Tokens,
		identity:    deps.Identity,
		grievances:  deps.Grievances,
		departments: deps.Departments,
		mailer:      deps.Mailer,
		validate:    validator.New(),

		maxBodyBytes: 1 << 20,
		rateBurst:    20,
		ratePerSec:   10,
	}
	for _, opt := range opts {
		opt(a)
	}

	// health/ready/info
	a.mux.HandleFunc("GET /healthz", a.Healthz)
	a.mux.HandleFunc("GET /readyz", a.Ready)
	a.mux.HandleFunc("GET /v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("GET /metrics", obs.Handler())

	// identity
	a.mux.HandleFunc("POST /v1/auth/register", a.handleRegister)
	a.mux.HandleFunc("POST /v1/auth/login", a.handleLogin)
	a.mux.HandleFunc("POST /v1/auth/request-verification", a.handleRequestVerification)
	a.mux.HandleFunc("POST /v1/auth/verify-code", a.handleVerifyCode)
	a.mux.HandleFunc("GET /v1/me", a.handleProfile)
	a.mux.HandleFunc("PATCH /v1/me", a.handleUpdateProfile)

	// grievances
	a.mux.HandleFunc("POST /v1/grievances", a.handleSubmitGrievance)
	a.mux.HandleFunc("GET /v1/grievances", a.handleListOwnGrievances)
	a.mux.HandleFunc("GET /v1/grievances/{id}", a.handleGetGrievance)
	a.mux.HandleFunc("POST /v1/grievances/{id}/feedback", a.handleGrievanceFeedback)

	// anonymous tracking
	a.mux.HandleFunc("GET /v1/track/{code}", a.handleTrack)
	a.mux.HandleFunc("POST /v1/track/{code}/feedback", a.handleTrackFeedback)

	// department staff
	a.mux.HandleFunc("GET /v1/department/grievances", a.handleDepartmentGrievances)
	a.mux.HandleFunc("PATCH /v1/department/grievances/{id}", a.handleDepartmentUpdateGrievance)

	// administration
	a.mux.HandleFunc("GET /v1/admin/grievances", a.handleAdminGrievances)
	a.mux.HandleFunc("PATCH /v1/admin/grievances/{id}", a.handleAdminUpdateGrievance)
	a.mux.HandleFunc("GET /v1/admin/grievance-stats", a.handleGrievanceStats)
	a.mux.HandleFunc("GET /v1/admin/user-count", a.handleUserCount)
	a.mux.HandleFunc("POST /v1/admin/departments", a.handleCreateDepartment)
	a.mux.HandleFunc("GET /v1/admin/departments", a.handleListDepartments)
	a.mux.HandleFunc("POST /v1/admin/send-email", a.handleSendEmail)
	a.mux.HandleFunc("GET /v1/admin/feedback-stats", a.handleFeedbackStats)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "resource not found")
	})

	return a
}

// Handler returns the fully wrapped handler for the server.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	h = MaxBodyBytes(h, a.maxBodyBytes)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// --- ops handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "cgms-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "cgms-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// decodeValid decodes the body and runs struct-tag validation, reporting the
// first offending field.
func (a *API) decodeValid(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := decodeJSON(w, r, dst); err != nil {
		return err
	}
	if err := a.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%s is invalid", strings.ToLower(verrs[0].Field()))
		}
		return err
	}
	return nil
}

func handleGrievanceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, grievance.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, grievance.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "grievance not found")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
