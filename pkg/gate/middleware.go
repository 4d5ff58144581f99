package gate

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const bearerPrefix = "Bearer "

// denial is the JSON body returned to rejected clients.
type denial struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

// Middleware wraps next with the gate's allow/deny decision. Public paths
// pass straight through; every other request must carry a well-formed
// bearer token that the authority accepts.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := g.publicPaths[r.URL.Path]; ok {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			g.deny(w, r, http.StatusUnauthorized, "unauthorized",
				"Missing or malformed Authorization header.")
			return
		}

		if err := g.verifier.Verify(r.Context(), token, g.toolName); err != nil {
			g.deny(w, r, http.StatusForbidden, "forbidden",
				fmt.Sprintf("Authentication failed: %v", err))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// bearerToken extracts the token from an Authorization header value. The
// scheme is matched exactly: "Bearer", one space, a non-empty token.
func bearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := header[len(bearerPrefix):]
	if token == "" {
		return "", false
	}
	return token, true
}

// deny writes the rejection response. Streaming clients that accept
// text/event-stream get a plain-text line instead of JSON so their event
// parsers surface the reason rather than choking on an unexpected body.
func (g *Gate) deny(w http.ResponseWriter, r *http.Request, status int, kind, reason string) {
	requestID := uuid.NewString()

	g.logger.Warn("request denied",
		zap.String("request_id", requestID),
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
		zap.Int("status", status),
		zap.String("reason", reason),
	)

	w.Header().Set("X-Request-Id", requestID)

	if strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(status)
		fmt.Fprintf(w, "error %s: %s\n", kind, reason)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(denial{Error: kind, Reason: reason})
}
