package httpapi

import (
	"context"
	"net/http"
	"testing"
)

func TestExtractBearerToken(t *testing.T) {
	cases := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{name: "plain", header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		{name: "case insensitive scheme", header: "bearer abc", want: "abc"},
		{name: "empty", header: "", wantErr: true},
		{name: "wrong scheme", header: "Basic dXNlcg==", wantErr: true},
		{name: "scheme only", header: "Bearer ", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := extractBearerToken(tc.header)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.header)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestWithAuthRejectsBadTokensEverywhere(t *testing.T) {
	env := newTestAPI(t)

	// A malformed token fails even on otherwise public endpoints.
	resp := env.post("/v1/grievances", map[string]any{
		"description": "x", "category": "Room", "is_anonymous": true,
	}, bearerFor("garbage"))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for malformed token, got %d", resp.StatusCode)
	}
}

func TestWithAuthDeletedAccountStopsAuthenticating(t *testing.T) {
	env := newTestAPI(t)

	resp := env.post("/v1/auth/register", map[string]any{
		"username": "guest1", "email": "guest@example.com", "password": "s3cret1",
	}, nil)
	account := decode[map[string]any](t, resp)
	token := env.login(t, "guest@example.com", "s3cret1")

	if err := env.accounts.DeleteAccount(context.Background(), account["id"].(string)); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}

	resp = env.get("/v1/me", nil, bearerFor(token))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 after deletion, got %d", resp.StatusCode)
	}
}
