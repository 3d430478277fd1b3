package security

import (
	"encoding/json"
	"net/url"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/hook"
)

// AuthCookieMiddleware resolves the caller from the `pb_auth` cookie when
// no Authorization header was sent. Browsers cannot attach headers to
// WebSocket upgrades, so the room stream depends on this fallback.
func AuthCookieMiddleware() *hook.Handler[*core.RequestEvent] {
	return &hook.Handler[*core.RequestEvent]{
		Id:   "AuthCookieMiddleware",
		Func: authCookie,
	}
}

func authCookie(e *core.RequestEvent) error {
	if e.Auth != nil {
		return e.Next()
	}

	tokenCookie, err := e.Request.Cookie("pb_auth")
	if err != nil {
		return e.Next()
	}

	decodedCookie, err := url.QueryUnescape(tokenCookie.Value)
	if err != nil {
		return e.Next()
	}

	var cookieObject map[string]interface{}
	if err := json.Unmarshal([]byte(decodedCookie), &cookieObject); err != nil {
		return e.Next()
	}

	token, ok := cookieObject["token"].(string)
	if !ok || token == "" {
		return e.Next()
	}

	record, err := e.App.FindAuthRecordByToken(token, core.TokenTypeAuth)
	if err != nil {
		return e.Next()
	}

	e.Auth = record
	return e.Next()
}
