package collab

import (
	"context"
	"net/http"
)

// Headers trusted from the fronting auth gateway
const (
	gatewayPrincipalHeader = "X-Auth-Principal"
	gatewayRoleHeader      = "X-Auth-Role"
)

// gatewaySessionVerifier trusts identity headers injected by an upstream
// authenticating proxy. The proxy terminates the actual username/password/JWT
// flow; this process never sees raw credentials.
type gatewaySessionVerifier struct{}

/*
NewGatewaySessionVerifier define a SessionVerifier reading gateway-injected
identity headers

Only deploy behind a gateway that strips these headers from client traffic.

	@returns verifier instance
*/
func NewGatewaySessionVerifier() SessionVerifier {
	return &gatewaySessionVerifier{}
}

/*
VerifyRequest resolve the authenticated principal of a request

	@param ctx context.Context - execution context
	@param request *http.Request - the inbound request
	@returns the principal, or ErrNoSession when none is presented
*/
func (v *gatewaySessionVerifier) VerifyRequest(
	_ context.Context, request *http.Request,
) (Principal, error) {
	principalID := request.Header.Get(gatewayPrincipalHeader)
	role := request.Header.Get(gatewayRoleHeader)

	if principalID == "" || role == "" {
		return Principal{}, ErrNoSession
	}

	return Principal{ID: principalID, Role: role}, nil
}
