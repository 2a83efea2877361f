// Package encryption - cryptographic primitives for the chat subsystem
package encryption

import (
	"context"
	"fmt"

	"github.com/alwitt/goutils"
	"github.com/apex/log"
	"github.com/go-playground/validator/v10"
)

// Message blob layout: salt ‖ iv ‖ auth tag ‖ ciphertext, base64 encoded.
// The lengths are fixed, so decryption slices the blob at known offsets.
const (
	saltLength = 64
	ivLength   = 16
	tagLength  = 16
	keyLength  = 32

	// pbkdf2Iterations key derivation work factor (PBKDF2-SHA512)
	pbkdf2Iterations = 100000

	// accessTokenLength raw byte length of a referee capability token
	accessTokenLength = 32
)

/*
CredentialCodec the chat subsystem's cryptography engine. It is solely
responsible for all cryptographic operations in the subsystem.

Two deliberately opposite primitives live here: message encryption is
randomized (two encryptions of the same plaintext never produce the same
blob, hiding message equality), while token hashing is deterministic (the
same token always hashes identically, enabling lookup-by-hash).
*/
type CredentialCodec interface {
	/*
		EncryptMessage encrypt a message body

			@param ctx context.Context - execution context
			@param plainText string - the message body to encrypt
			@returns base64 encoded blob of salt ‖ iv ‖ auth tag ‖ ciphertext
	*/
	EncryptMessage(ctx context.Context, plainText string) (string, error)

	/*
		DecryptMessage decrypt a message blob produced by EncryptMessage

			@param ctx context.Context - execution context
			@param blob string - the base64 encoded encrypted blob
			@returns the message plain text
	*/
	DecryptMessage(ctx context.Context, blob string) (string, error)

	/*
		GenerateAccessToken produce a new referee bearer capability token

			@param ctx context.Context - execution context
			@returns hex encoded token with 256 bits of entropy
	*/
	GenerateAccessToken(ctx context.Context) (string, error)

	/*
		HashAccessToken compute the deterministic storage hash of a token

			@param token string - the bearer token
			@returns hex encoded SHA-256 hash
	*/
	HashAccessToken(token string) string
}

// DecryptionError a stored ciphertext failed authentication or could not be
// parsed. This is a data-integrity fault: the detail is for operator logs
// only and must never reach an API caller.
type DecryptionError struct {
	// Reason short operator-facing description of what failed
	Reason string
	cause  error
}

// Error implement error
func (e *DecryptionError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("decryption failed: %s [%s]", e.Reason, e.cause.Error())
	}
	return fmt.Sprintf("decryption failed: %s", e.Reason)
}

// Unwrap expose the underlying cause
func (e *DecryptionError) Unwrap() error { return e.cause }

// credentialCodec implements CredentialCodec
type credentialCodec struct {
	goutils.Component

	masterSecret []byte
}

// CredentialCodecParams credential codec init parameters
type CredentialCodecParams struct {
	// MasterSecret the process-wide master encryption secret. Message keys
	// are derived from it per call; it is never used as a cipher key directly.
	MasterSecret string `validate:"required"`
}

/*
NewCredentialCodec define new credential codec

A missing master secret is a constructor error; the process must not come up
able to mint chats it cannot later decrypt.

	@param ctx context.Context - execution context
	@param params CredentialCodecParams - codec parameters
	@returns codec instance
*/
func NewCredentialCodec(
	_ context.Context, params CredentialCodecParams,
) (CredentialCodec, error) {
	logTags := log.Fields{"package": "refchat", "module": "encryption", "component": "credential-codec"}

	validate := validator.New()
	if err := validate.Struct(&params); err != nil {
		return nil, fmt.Errorf("invalid codec init parameters [%w]", err)
	}

	instance := &credentialCodec{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		masterSecret: []byte(params.MasterSecret),
	}

	return instance, nil
}
