package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"cgms.org/internal/auth"
	"cgms.org/internal/department"
	"cgms.org/internal/identity"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

// withAuth resolves the bearer token into an Actor and stores it on the
// context. Requests without a token pass through unauthenticated so public
// endpoints keep working; a token that is present but bad fails with 401
// regardless of the target path. The account is re-read on every request so
// a deleted account stops authenticating before its token expires.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		header := strings.TrimSpace(r.Header.Get(authHeader))
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}
		token, err := extractBearerToken(header)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}

		ident, err := a.tokens.Verify(token)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrTokenExpired):
				writeError(w, r, http.StatusUnauthorized, "token expired")
			default:
				writeError(w, r, http.StatusUnauthorized, "invalid token")
			}
			return
		}

		account, err := a.identity.Profile(r.Context(), ident.AccountID)
		if err != nil {
			if errors.Is(err, identity.ErrNotFound) {
				writeError(w, r, http.StatusUnauthorized, "account no longer exists")
				return
			}
			writeError(w, r, http.StatusInternalServerError, "authentication error")
			return
		}

		var actor auth.Actor
		switch account.Role {
		case auth.RoleAdministrator:
			actor = auth.Administrator(account.ID)
		case auth.RoleDepartment:
			dep, err := a.departments.ResolveByAccount(r.Context(), account.ID)
			if err != nil {
				if errors.Is(err, department.ErrNotFound) {
					// Staff account with no department behind it; nothing it
					// is allowed to touch.
					writeError(w, r, http.StatusForbidden, "no department assigned")
					return
				}
				writeError(w, r, http.StatusInternalServerError, "authentication error")
				return
			}
			actor, err = auth.DepartmentActor(account.ID, dep.Name)
			if err != nil {
				writeError(w, r, http.StatusForbidden, "no department assigned")
				return
			}
		default:
			actor = auth.Submitter(account.ID)
		}

		next.ServeHTTP(w, r.WithContext(auth.ContextWithActor(r.Context(), actor)))
	})
}

func extractBearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

// requireActor fetches the authenticated actor or fails with 401.
func (a *API) requireActor(w http.ResponseWriter, r *http.Request) (auth.Actor, bool) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return auth.Actor{}, false
	}
	return actor, true
}

// requireAdmin fetches the actor and enforces administrator access.
func (a *API) requireAdmin(w http.ResponseWriter, r *http.Request) (auth.Actor, bool) {
	actor, ok := a.requireActor(w, r)
	if !ok {
		return auth.Actor{}, false
	}
	if !auth.CanAdminister(actor) {
		writeError(w, r, http.StatusForbidden, "administrator access required")
		return auth.Actor{}, false
	}
	return actor, true
}

// requireDepartment fetches the actor and its resolved department name.
func (a *API) requireDepartment(w http.ResponseWriter, r *http.Request) (auth.Actor, string, bool) {
	actor, ok := a.requireActor(w, r)
	if !ok {
		return auth.Actor{}, "", false
	}
	dept, ok := actor.Department()
	if !ok {
		writeError(w, r, http.StatusForbidden, "department access required")
		return auth.Actor{}, "", false
	}
	return actor, dept, true
}
