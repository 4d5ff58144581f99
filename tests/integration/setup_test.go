// Package integration exercises the SDK end to end against an in-process
// authority: badge issuance with live discovery, the token exchange, and
// the gated reverse proxy.
package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/google/uuid"

	"github.com/agntcy/identity-service/pkg/authority"
	"github.com/agntcy/identity-service/pkg/claims"
	"github.com/agntcy/identity-service/pkg/identity"
)

// fakeAuthority is a stand-in for the hosted identity service. It implements
// the full wire surface the SDK talks to and records what it saw.
type fakeAuthority struct {
	mu sync.Mutex

	app identity.App

	// tokenSettleAfter delays token exchange success: the first N calls
	// answer 404 as if the authorization has not settled yet.
	tokenSettleAfter int
	tokenCalls       int

	codes  map[string]bool
	tokens map[string]bool

	issued    []authority.IssueBadgeRequest
	lastBadge string

	server *httptest.Server
}

func newFakeAuthority(app identity.App) *fakeAuthority {
	f := &fakeAuthority{
		app:    app,
		codes:  map[string]bool{},
		tokens: map[string]bool{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1alpha1/auth/app_info", f.handleAppInfo)
	mux.HandleFunc("/v1alpha1/auth/authorize", f.handleAuthorize)
	mux.HandleFunc("/v1alpha1/auth/token", f.handleToken)
	mux.HandleFunc("/v1alpha1/auth/ext_authz", f.handleExtAuthz)
	mux.HandleFunc("/v1alpha1/badges/issue", f.handleIssue)
	mux.HandleFunc("/v1alpha1/badges/verify", f.handleVerify)

	f.server = httptest.NewServer(mux)
	return f
}

func (f *fakeAuthority) Close() { f.server.Close() }

func (f *fakeAuthority) URL() string { return f.server.URL }

func (f *fakeAuthority) handleAppInfo(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-Id-Api-Key") == "" {
		http.Error(w, `{"message":"missing api key"}`, http.StatusUnauthorized)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]identity.App{"app": f.app})
}

func (f *fakeAuthority) handleAuthorize(w http.ResponseWriter, _ *http.Request) {
	code := uuid.NewString()
	f.mu.Lock()
	f.codes[code] = true
	f.mu.Unlock()
	_ = json.NewEncoder(w).Encode(authority.AuthorizeResponse{AuthorizationCode: code})
}

func (f *fakeAuthority) handleToken(w http.ResponseWriter, r *http.Request) {
	var req authority.TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.tokenCalls++
	if f.tokenCalls <= f.tokenSettleAfter {
		http.Error(w, `{"message":"authorization not settled"}`, http.StatusNotFound)
		return
	}
	if !f.codes[req.AuthorizationCode] {
		http.Error(w, `{"message":"authorization code not found"}`, http.StatusNotFound)
		return
	}

	delete(f.codes, req.AuthorizationCode)
	token := uuid.NewString()
	f.tokens[token] = true
	_ = json.NewEncoder(w).Encode(authority.TokenResponse{AccessToken: token})
}

func (f *fakeAuthority) handleExtAuthz(w http.ResponseWriter, r *http.Request) {
	var req authority.ExtAuthzRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	ok := f.tokens[req.AccessToken]
	f.mu.Unlock()

	if !ok {
		http.Error(w, `{"message":"access token rejected"}`, http.StatusForbidden)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (f *fakeAuthority) handleIssue(w http.ResponseWriter, r *http.Request) {
	var req authority.IssueBadgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if req.Claims.Empty() {
		http.Error(w, `{"message":"empty claims"}`, http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.issued = append(f.issued, req)
	f.lastBadge = "badge-" + uuid.NewString()
	badge := f.lastBadge
	f.mu.Unlock()

	_ = json.NewEncoder(w).Encode(authority.IssueBadgeResponse{Badge: badge})
}

func (f *fakeAuthority) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req authority.VerifyBadgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	valid := req.Badge != "" && req.Badge == f.lastBadge
	f.mu.Unlock()

	result := authority.VerificationResult{Valid: valid}
	if !valid {
		result.Reason = "unknown badge"
	}
	_ = json.NewEncoder(w).Encode(result)
}

// issuedClaims returns the claims from the nth issuance.
func (f *fakeAuthority) issuedClaims(n int) claims.Claims {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.issued[n].Claims
}
