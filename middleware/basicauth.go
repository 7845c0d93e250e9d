package middleware

import (
	"encoding/base64"
	"strings"

	"github.com/sleipnir-web/sleipnir/request"
	"github.com/sleipnir-web/sleipnir/response"
	"github.com/sleipnir-web/sleipnir/router"
	"github.com/sleipnir-web/sleipnir/session"
)

type Account struct {
	Username string
	Password string
}

// BasicAuth guards wrapped handlers with HTTP basic authentication against a
// fixed set of accounts.
func BasicAuth(accounts []Account) router.Middleware {
	accountMap := make(map[string]string)
	for _, acc := range accounts {
		accountMap[acc.Username] = acc.Password
	}

	challenge := func(w *response.Response) {
		w.Reset().
			SetStatus(response.StatusUnauthorized).
			SetHeader("www-authenticate", `Basic realm="Restricted"`)
	}

	return func(next router.Handler) router.Handler {
		return func(r *request.Request, w *response.Response, s *session.Session) {
			auth := r.Headers.Get("Authorization")

			if !strings.HasPrefix(auth, "Basic ") {
				challenge(w)
				return
			}

			payload, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(auth, "Basic "))
			if err != nil {
				w.SetStatus(response.StatusBadRequest).Text("Invalid authorization header")
				return
			}

			user, pass, found := strings.Cut(string(payload), ":")
			if !found {
				w.SetStatus(response.StatusBadRequest).Text("Invalid authorization header")
				return
			}

			actualPass, ok := accountMap[user]
			if !ok || actualPass != pass {
				challenge(w)
				return
			}

			next(r, w, s)
		}
	}
}
