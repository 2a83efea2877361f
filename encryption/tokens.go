package encryption

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

/*
GenerateAccessToken produce a new referee bearer capability token

	@param ctx context.Context - execution context
	@returns hex encoded token with 256 bits of entropy
*/
func (c *credentialCodec) GenerateAccessToken(_ context.Context) (string, error) {
	raw := make([]byte, accessTokenLength)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate access token [%w]", err)
	}
	return hex.EncodeToString(raw), nil
}

/*
HashAccessToken compute the deterministic storage hash of a token

This is a lookup index, not a password-storage primitive; the token itself is
the secret, so there is no per-token salt.

	@param token string - the bearer token
	@returns hex encoded SHA-256 hash
*/
func (c *credentialCodec) HashAccessToken(token string) string {
	digest := sha256.Sum256([]byte(token))
	return hex.EncodeToString(digest[:])
}
