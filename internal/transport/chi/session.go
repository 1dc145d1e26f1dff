package chi

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
)

type sessionKey struct{}

// SessionFromContext returns the request's session identifier, or "".
func SessionFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(sessionKey{}).(string); ok {
		return v
	}
	return ""
}

// SessionMiddleware assigns a session cookie to requests that lack one and
// exposes the session identifier through the context. The session carries
// only the remembered searches, so an opaque random identifier suffices.
func SessionMiddleware(cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid := ""
			if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
				sid = c.Value
			} else {
				sid = newSessionID()
				http.SetCookie(w, &http.Cookie{
					Name:     cookieName,
					Value:    sid,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), sessionKey{}, sid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newSessionID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failure means the process cannot do anything useful.
		panic(err)
	}
	return hex.EncodeToString(buf)
}
