// Package sharing decides who may see or change a playlist and manages share links.
package sharing

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/vibelab/backend/internal/models"
)

// AccessCodeHeader carries the playlist access code on requests.
const AccessCodeHeader = "X-Access-Code"

// Decision is the outcome of an access check.
type Decision int

const (
	Deny Decision = iota
	Allow
)

// Allowed reports whether d grants access.
func (d Decision) Allowed() bool { return d == Allow }

// Requester identifies who is calling. The zero value is anonymous.
type Requester struct {
	UserID        string
	Authenticated bool
}

// Anonymous returns an unauthenticated requester.
func Anonymous() Requester { return Requester{} }

// User returns an authenticated requester for userID.
func User(userID string) Requester {
	return Requester{UserID: userID, Authenticated: userID != ""}
}

// IsOwner reports whether r is the authenticated owner of p.
func (r Requester) IsOwner(p models.Playlist) bool {
	return r.Authenticated && r.UserID != "" && r.UserID == p.OwnerID
}

// CheckAccess grants read access to the owner, or to anyone presenting the
// playlist's access code. An unset code never matches.
func CheckAccess(p models.Playlist, r Requester, suppliedCode string) Decision {
	if r.IsOwner(p) {
		return Allow
	}
	if codeMatches(p.AccessCode, suppliedCode) {
		return Allow
	}
	return Deny
}

// CheckOwnership gates mutations; the access code is never considered.
func CheckOwnership(p models.Playlist, r Requester) Decision {
	if r.IsOwner(p) {
		return Allow
	}
	return Deny
}

// SuppliedCode picks the access code from the header, then the decoded body
// value, then the query string. The first non-empty value wins.
func SuppliedCode(r *http.Request, bodyCode string) string {
	if code := strings.TrimSpace(r.Header.Get(AccessCodeHeader)); code != "" {
		return code
	}
	if code := strings.TrimSpace(bodyCode); code != "" {
		return code
	}
	return strings.TrimSpace(r.URL.Query().Get("accessCode"))
}

func codeMatches(stored, supplied string) bool {
	if stored == "" || supplied == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) == 1
}
