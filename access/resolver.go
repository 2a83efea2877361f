// Package access - credential forms and chat authorization
package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/alwitt/goutils"
	"github.com/apex/log"
	"github.com/vetline/refchat/db"
	"github.com/vetline/refchat/encryption"
	"github.com/vetline/refchat/models"
)

// ErrAuthenticationMissing the request presented no credential of either form
var ErrAuthenticationMissing = errors.New("no credential presented")

// ErrAccessDenied the presented credential does not resolve to the requested
// chat. Deliberately uniform: callers cannot distinguish a wrong token from a
// wrong owner from a nonexistent chat.
var ErrAccessDenied = errors.New("chat not found or access denied")

// credentialKind which trust domain a credential claims
type credentialKind int

const (
	credentialKindNone credentialKind = iota
	credentialKindRecruiterSession
	credentialKindRefereeToken
)

// Credential the resolved identity claim of an inbound request: either an
// authenticated recruiter principal or a referee bearer token. Transient,
// never persisted.
type Credential struct {
	kind        credentialKind
	principalID string
	token       string
}

// RecruiterSession credential from a verified recruiter session
func RecruiterSession(principalID string) Credential {
	return Credential{kind: credentialKindRecruiterSession, principalID: principalID}
}

// RefereeToken credential from a bearer capability token
func RefereeToken(token string) Credential {
	return Credential{kind: credentialKindRefereeToken, token: token}
}

// Anonymous the empty credential; resolving with it always fails
func Anonymous() Credential {
	return Credential{kind: credentialKindNone}
}

// IsPresent whether any credential form was presented
func (c Credential) IsPresent() bool {
	return c.kind != credentialKindNone
}

// PrincipalID the recruiter principal, when the credential is a session
func (c Credential) PrincipalID() (string, bool) {
	return c.principalID, c.kind == credentialKindRecruiterSession
}

// Resolver translate an inbound request's credential into an authorization
// decision for one chat
type Resolver interface {
	/*
		ResolveChatAccess determine whether a credential may access a chat

		The resolved role is implied by the credential form alone; a caller
		asserted role is never trusted.

			@param ctx context.Context - execution context
			@param chatID string - the chat being accessed
			@param credential Credential - the request's credential
			@param activeDBClient db.Database - existing database transaction
			@returns the chat and the caller's role in it, or ErrAccessDenied
	*/
	ResolveChatAccess(
		ctx context.Context, chatID string, credential Credential, activeDBClient db.Database,
	) (models.Chat, models.SenderTypeENUMType, error)
}

// resolverImpl implements Resolver
type resolverImpl struct {
	goutils.Component

	persistence db.Client
	codec       encryption.CredentialCodec
}

/*
NewResolver define new access resolver

	@param ctx context.Context - execution context
	@param persistence db.Client - persistence layer client
	@param codec encryption.CredentialCodec - credential codec
	@returns resolver instance
*/
func NewResolver(
	_ context.Context, persistence db.Client, codec encryption.CredentialCodec,
) (Resolver, error) {
	logTags := log.Fields{"package": "refchat", "module": "access", "component": "resolver"}

	instance := &resolverImpl{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		persistence: persistence,
		codec:       codec,
	}

	return instance, nil
}

/*
ResolveChatAccess determine whether a credential may access a chat

	@param ctx context.Context - execution context
	@param chatID string - the chat being accessed
	@param credential Credential - the request's credential
	@param activeDBClient db.Database - existing database transaction
	@returns the chat and the caller's role in it, or ErrAccessDenied
*/
func (r *resolverImpl) ResolveChatAccess(
	ctx context.Context, chatID string, credential Credential, activeDBClient db.Database,
) (models.Chat, models.SenderTypeENUMType, error) {
	logTags := r.GetLogTagsForContext(ctx)

	switch credential.kind {
	case credentialKindRecruiterSession:
		chat, err := r.resolveRecruiter(ctx, chatID, credential.principalID, activeDBClient)
		if err != nil {
			// Internal logs may say more than the caller ever learns
			log.WithError(err).
				WithFields(logTags).
				WithField("chat", chatID).
				Debug("Recruiter session did not resolve to chat")
			return models.Chat{}, "", ErrAccessDenied
		}
		return chat, models.SenderTypeRecruiter, nil

	case credentialKindRefereeToken:
		chat, err := r.resolveToken(ctx, chatID, credential.token, activeDBClient)
		if err != nil {
			log.WithError(err).
				WithFields(logTags).
				WithField("chat", chatID).
				Debug("Referee token did not resolve to chat")
			return models.Chat{}, "", ErrAccessDenied
		}
		return chat, models.SenderTypeReferee, nil

	default:
		return models.Chat{}, "", ErrAuthenticationMissing
	}
}

// resolveRecruiter match chat ID and owning recruiter in one query, so a
// valid but non-owning recruiter learns nothing about the chat's existence
func (r *resolverImpl) resolveRecruiter(
	ctx context.Context, chatID string, principalID string, activeDBClient db.Database,
) (models.Chat, error) {
	var chat models.Chat
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, r.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			chat, err = dbClient.FindChatForRecruiter(dbCtx, chatID, principalID)
			return err
		},
	); dbErr != nil {
		return models.Chat{}, fmt.Errorf("recruiter lookup of chat %s failed [%w]", chatID, dbErr)
	}
	return chat, nil
}

// resolveToken match by token hash, falling back to the deprecated raw-token
// comparison for chats predating token hashing
func (r *resolverImpl) resolveToken(
	ctx context.Context, chatID string, token string, activeDBClient db.Database,
) (models.Chat, error) {
	tokenHash := r.codec.HashAccessToken(token)

	var chat models.Chat
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, r.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			chat, err = dbClient.FindChatByTokenHash(dbCtx, chatID, tokenHash)
			if err == nil {
				return nil
			}

			// Legacy fallback; the store records an audit event on every hit
			chat, err = dbClient.FindChatByLegacyRawToken(dbCtx, chatID, token)
			return err
		},
	); dbErr != nil {
		return models.Chat{}, fmt.Errorf("token lookup of chat %s failed [%w]", chatID, dbErr)
	}
	return chat, nil
}
