package encryption

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha512"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// deriveKey derive the per-message AES key from the master secret and a salt
func (c *credentialCodec) deriveKey(salt []byte) []byte {
	return pbkdf2.Key(c.masterSecret, salt, pbkdf2Iterations, keyLength, sha512.New)
}

// setupAEAD prepare an AES-256-GCM AEAD for the given key
//
// The blob format carries a 16 byte IV, not GCM's default 12, so the nonce
// size is set explicitly.
func setupAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("unable to define AES block cipher [%w]", err)
	}

	aead, err := cipher.NewGCMWithNonceSize(block, ivLength)
	if err != nil {
		return nil, fmt.Errorf("unable to define GCM AEAD client [%w]", err)
	}

	return aead, nil
}

/*
EncryptMessage encrypt a message body

Every call draws a fresh salt and IV, so identical plaintexts never produce
identical blobs.

	@param ctx context.Context - execution context
	@param plainText string - the message body to encrypt
	@returns base64 encoded blob of salt ‖ iv ‖ auth tag ‖ ciphertext
*/
func (c *credentialCodec) EncryptMessage(
	_ context.Context, plainText string,
) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate encryption salt [%w]", err)
	}

	iv := make([]byte, ivLength)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("failed to generate encryption IV [%w]", err)
	}

	aead, err := setupAEAD(c.deriveKey(salt))
	if err != nil {
		return "", fmt.Errorf("failed to setup AEAD client [%w]", err)
	}

	// Seal returns ciphertext ‖ tag; the blob layout wants tag ‖ ciphertext
	sealed := aead.Seal(nil, iv, []byte(plainText), nil)
	cipherText := sealed[:len(sealed)-tagLength]
	tag := sealed[len(sealed)-tagLength:]

	blob := make([]byte, 0, saltLength+ivLength+tagLength+len(cipherText))
	blob = append(blob, salt...)
	blob = append(blob, iv...)
	blob = append(blob, tag...)
	blob = append(blob, cipherText...)

	return base64.StdEncoding.EncodeToString(blob), nil
}

/*
DecryptMessage decrypt a message blob produced by EncryptMessage

A blob that is malformed, truncated, or fails tag authentication returns a
`*DecryptionError`; garbage plain text is never returned silently.

	@param ctx context.Context - execution context
	@param blob string - the base64 encoded encrypted blob
	@returns the message plain text
*/
func (c *credentialCodec) DecryptMessage(
	_ context.Context, blob string,
) (string, error) {
	combined, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return "", &DecryptionError{Reason: "blob is not valid base64", cause: err}
	}

	if len(combined) < saltLength+ivLength+tagLength {
		return "", &DecryptionError{
			Reason: fmt.Sprintf(
				"blob truncated: %d bytes < %d byte header", len(combined), saltLength+ivLength+tagLength,
			),
		}
	}

	salt := combined[:saltLength]
	iv := combined[saltLength : saltLength+ivLength]
	tag := combined[saltLength+ivLength : saltLength+ivLength+tagLength]
	cipherText := combined[saltLength+ivLength+tagLength:]

	aead, err := setupAEAD(c.deriveKey(salt))
	if err != nil {
		return "", fmt.Errorf("failed to setup AEAD client [%w]", err)
	}

	// Reassemble ciphertext ‖ tag for GCM open
	sealed := make([]byte, 0, len(cipherText)+tagLength)
	sealed = append(sealed, cipherText...)
	sealed = append(sealed, tag...)

	plainText, err := aead.Open(nil, iv, sealed, nil)
	if err != nil {
		return "", &DecryptionError{Reason: "ciphertext tampered or key mismatch", cause: err}
	}

	return string(plainText), nil
}
