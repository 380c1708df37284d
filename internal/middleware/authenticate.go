package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/vibelab/backend/internal/auth"
	"github.com/vibelab/backend/internal/logging"
)

// TokenVerifier validates an access token and returns the user it names.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Authenticate reads a Bearer token and stores the user id on the context.
// With required set, requests without a token are rejected. A token that is
// present but invalid is always rejected.
func Authenticate(verifier TokenVerifier, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := strings.TrimSpace(r.Header.Get("Authorization"))
			if header == "" {
				if required {
					writeError(w, http.StatusUnauthorized, "unauthenticated", "authentication credentials were not provided")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			scheme, token, ok := strings.Cut(header, " ")
			token = strings.TrimSpace(token)
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				writeError(w, http.StatusUnauthorized, "unauthenticated", "malformed authorization header")
				return
			}

			userID, err := verifier.Verify(token)
			if err != nil {
				logging.FromContext(r.Context()).Warn("access token rejected", "error", err)
				writeError(w, http.StatusUnauthorized, "unauthenticated", "invalid or expired token")
				return
			}

			ctx := logging.WithAttrs(auth.WithUserID(r.Context(), userID), "userId", userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeError(w http.ResponseWriter, status int, kind, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": detail, "kind": kind})
}
