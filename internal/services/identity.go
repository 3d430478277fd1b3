package services

import (
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase/core"
)

// DemoSessionHeader carries the demo-room capability token. Possession of
// the token is the whole credential; there is no identity behind it.
const DemoSessionHeader = "X-Demo-Session"

const demoSubjectPrefix = "demo:"

// Caller is the resolved identity of an inbound request. A nil *Caller
// means the request is anonymous. Demo-session callers have a stable
// subject id derived from their capability token but do not count as
// authenticated.
type Caller struct {
	UserID        string
	Name          string
	Email         string
	AvatarURL     string
	OrgID         string
	Authenticated bool
}

// IsDemo reports whether the caller's identity is a demo capability token
// rather than an authenticated user.
func (c *Caller) IsDemo() bool {
	return c != nil && strings.HasPrefix(c.UserID, demoSubjectPrefix)
}

// IsAuthenticated reports whether the caller is backed by a real auth
// record. Demo capability callers have an identity but are not
// authenticated: anyone can mint a session header, so it must never open
// private rooms.
func (c *Caller) IsAuthenticated() bool {
	return c != nil && c.Authenticated
}

// DemoSubject derives the host subject id for a demo session token.
func DemoSubject(sessionID string) string {
	return demoSubjectPrefix + sessionID
}

// ResolveCaller extracts the caller identity from a request event: the
// PocketBase auth record when present, otherwise the demo session header,
// otherwise nil.
func ResolveCaller(e *core.RequestEvent) *Caller {
	if e.Auth != nil {
		return &Caller{
			UserID:        e.Auth.Id,
			Name:          e.Auth.GetString("name"),
			Email:         e.Auth.GetString("email"),
			AvatarURL:     e.Auth.GetString("avatar"),
			OrgID:         e.Auth.GetString("organization_id"),
			Authenticated: true,
		}
	}
	return callerFromDemoHeader(e.Request)
}

func callerFromDemoHeader(r *http.Request) *Caller {
	token := r.Header.Get(DemoSessionHeader)
	if token == "" {
		return nil
	}
	return &Caller{
		UserID: DemoSubject(token),
		Name:   "Demo Host",
	}
}
