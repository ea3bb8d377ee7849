package service

import (
	"errors"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ErrForbidden indicates the actor may not touch another teacher's data.
var ErrForbidden = errors.New("not allowed to access this resource")

// Actor is the authenticated teacher or admin behind a request.
type Actor struct {
	ID   uint
	Role string
}

// IsAdmin reports whether the actor bypasses ownership checks.
func (a Actor) IsAdmin() bool {
	return strings.EqualFold(strings.TrimSpace(a.Role), "admin")
}

// Owns reports whether the actor may manage a record owned by teacherID.
func (a Actor) Owns(teacherID uint) bool {
	return a.IsAdmin() || a.ID == teacherID
}

// listScope is the teacher filter for list queries; zero means everyone.
func (a Actor) listScope() uint {
	if a.IsAdmin() {
		return 0
	}
	return a.ID
}

// cleanText strips markup and restores entities the policy escaped, so
// stored text stays plain and UTF-16 offsets computed on it stay stable.
func cleanText(policy *bluemonday.Policy, value string) string {
	return strings.TrimSpace(html.UnescapeString(policy.Sanitize(value)))
}
