// Package apis - HTTP surface of the referee chat subsystem
package apis

import (
	"context"
	"net/http"

	"github.com/alwitt/goutils"
	"github.com/apex/log"
	"github.com/vetline/refchat/access"
	"github.com/vetline/refchat/collab"
)

// refereeTokenHeader alternate carrier for the referee access token, for
// clients that do not want the token in the URL
const refereeTokenHeader = "X-Referee-Token"

type credentialContextKey struct{}

/*
CredentialFromContext fetch the request credential the middleware attached

	@param ctx context.Context - request context
	@returns the credential; anonymous when the middleware never ran
*/
func CredentialFromContext(ctx context.Context) access.Credential {
	if credential, ok := ctx.Value(credentialContextKey{}).(access.Credential); ok {
		return credential
	}
	return access.Anonymous()
}

// credentialMiddleware classifies each request's credential and attaches it
// to the request context. It never rejects: anonymous requests pass through
// and fail downstream with an authentication error.
type credentialMiddleware struct {
	goutils.Component

	sessions collab.SessionVerifier
}

/*
NewCredentialMiddleware define middleware which resolves the caller credential

Referee tokens are read from the "token" query parameter or the
X-Referee-Token header. All other requests are checked against the platform
session verifier for a recruiter session.

	@param ctx context.Context - execution context
	@param sessions collab.SessionVerifier - platform session verifier
	@returns mux-compatible middleware
*/
func NewCredentialMiddleware(
	_ context.Context, sessions collab.SessionVerifier,
) func(http.Handler) http.Handler {
	middleware := &credentialMiddleware{
		Component: goutils.Component{
			LogTags: log.Fields{
				"package": "refchat", "module": "apis", "component": "credential-middleware",
			},
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		sessions: sessions,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			credential := middleware.classify(r)
			ctx := context.WithValue(r.Context(), credentialContextKey{}, credential)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// classify derive the request credential. A presented token wins over an
// ambient session; a referee following a chat link from a browser with a
// recruiter cookie must still act as the referee.
func (m *credentialMiddleware) classify(r *http.Request) access.Credential {
	if token := r.URL.Query().Get("token"); token != "" {
		return access.RefereeToken(token)
	}
	if token := r.Header.Get(refereeTokenHeader); token != "" {
		return access.RefereeToken(token)
	}

	principal, err := m.sessions.VerifyRequest(r.Context(), r)
	if err != nil {
		if err != collab.ErrNoSession {
			log.WithError(err).
				WithFields(m.GetLogTagsForContext(r.Context())).
				Warn("Session verification failed")
		}
		return access.Anonymous()
	}
	if principal.Role != collab.RoleRecruiter {
		// Other platform roles have no standing in referee chats
		return access.Anonymous()
	}

	return access.RecruiterSession(principal.ID)
}
