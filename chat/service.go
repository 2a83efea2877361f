// Package chat - chat lifecycle orchestration
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/alwitt/goutils"
	"github.com/apex/log"
	"github.com/go-playground/validator/v10"
	"github.com/vetline/refchat/access"
	"github.com/vetline/refchat/collab"
	"github.com/vetline/refchat/db"
	"github.com/vetline/refchat/encryption"
	"github.com/vetline/refchat/models"
	"github.com/vetline/refchat/notify"
	"gorm.io/gorm"
)

// maxMessageLength upper bound on message content, in runes
const maxMessageLength = 5000

// ErrNotApplicationOwner the caller is a valid recruiter, but the application
// belongs to someone else
var ErrNotApplicationOwner = errors.New("application does not belong to this recruiter")

// ValidationError a malformed input; field-level detail is safe to expose
type ValidationError struct {
	// Field the offending input field
	Field string
	// Reason caller-actionable description
	Reason string
}

// Error implement error
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// MessageView one decrypted message as returned to callers
type MessageView struct {
	// ID message ID
	ID string `json:"id"`
	// SenderType which trust domain sent the message
	SenderType models.SenderTypeENUMType `json:"sender_type"`
	// Content the decrypted message body; empty when Corrupted
	Content string `json:"content"`
	// IsRead reserved read-receipt flag
	IsRead bool `json:"is_read"`
	// Corrupted the stored ciphertext failed authentication
	Corrupted bool `json:"corrupted,omitempty"`
	// CreatedAt append timestamp
	CreatedAt time.Time `json:"created_at"`
}

// Detail chat metadata joined with collaborator display data and the
// decrypted message log
type Detail struct {
	// Chat the chat record
	Chat models.Chat `json:"chat"`
	// Application owning application summary
	Application collab.ApplicationSummary `json:"application"`
	// Recruiter recruiter display fields
	Recruiter collab.RecruiterProfile `json:"recruiter"`
	// Referee referee display fields
	Referee collab.RefereeProfile `json:"referee"`
	// Messages decrypted message log in append order
	Messages []MessageView `json:"messages"`
	// ViewerRole the caller's resolved role in the chat
	ViewerRole models.SenderTypeENUMType `json:"viewer_role"`
}

// CreateResult outcome of a create-chat call
type CreateResult struct {
	// Chat the chat record
	Chat models.Chat `json:"chat"`
	// AccessURL referee access URL embedding the plaintext token
	AccessURL string `json:"chat_url"`
	// AlreadyExisted the chat predated this call; no token was minted and no
	// invitation was sent
	AlreadyExisted bool `json:"-"`
}

/*
Service the chat lifecycle orchestrator. These are the entry points external
HTTP handlers call.

A chat has no terminal state: once created it only ever accumulates messages.
*/
type Service interface {
	/*
		CreateChat create the chat between an application's recruiter and one
		of its referees

		Idempotent on the (application, referee) pair: if the chat already
		exists it is returned unchanged, with no new token and no new
		invitation. First creation advances an UNDER_REVIEW application to
		REFEREE_CONTACTED and dispatches the referee invitation.

			@param ctx context.Context - execution context
			@param applicationID string - the application
			@param refereeID string - the referee to contact
			@param credential access.Credential - caller credential; must be a
			    recruiter session owning the application
			@returns the chat and its referee access URL
	*/
	CreateChat(
		ctx context.Context, applicationID string, refereeID string, credential access.Credential,
	) (CreateResult, error)

	/*
		FetchChat fetch chat metadata, display data, and decrypted messages

			@param ctx context.Context - execution context
			@param chatID string - the chat
			@param credential access.Credential - caller credential
			@returns the chat detail
	*/
	FetchChat(
		ctx context.Context, chatID string, credential access.Credential,
	) (Detail, error)

	/*
		ListMessages fetch the decrypted message log

			@param ctx context.Context - execution context
			@param chatID string - the chat
			@param credential access.Credential - caller credential
			@returns messages in append order
	*/
	ListMessages(
		ctx context.Context, chatID string, credential access.Credential,
	) ([]MessageView, error)

	/*
		SendMessage append one message to the chat

		Not idempotent: a retry after an ambiguous failure appends a duplicate
		message. The counterparty is alerted out-of-band; alert failures never
		fail the send.

			@param ctx context.Context - execution context
			@param chatID string - the chat
			@param credential access.Credential - caller credential; the
			    resolved role determines the recorded sender type
			@param content string - message body, non-empty, at most 5000 characters
			@returns the appended message with plaintext content for display
	*/
	SendMessage(
		ctx context.Context, chatID string, credential access.Credential, content string,
	) (MessageView, error)
}

// serviceImpl implements Service
type serviceImpl struct {
	goutils.Component

	persistence  db.Client
	codec        encryption.CredentialCodec
	resolver     access.Resolver
	applications collab.ApplicationDirectory
	referees     collab.RefereeDirectory
	email        notify.Dispatcher
	whatsapp     notify.Dispatcher

	baseURL string
}

// ServiceParams chat service init parameters
type ServiceParams struct {
	// Persistence persistence layer client
	Persistence db.Client `validate:"required"`
	// Codec credential codec
	Codec encryption.CredentialCodec `validate:"required"`
	// Resolver access resolver
	Resolver access.Resolver `validate:"required"`
	// Applications application directory collaborator
	Applications collab.ApplicationDirectory `validate:"required"`
	// Referees referee directory collaborator
	Referees collab.RefereeDirectory `validate:"required"`
	// Email primary notification channel
	Email notify.Dispatcher `validate:"required"`
	// WhatsApp optional secondary notification channel
	WhatsApp notify.Dispatcher `validate:"-"`
	// BaseURL public base URL access links are built against
	BaseURL string `validate:"required,url"`
}

/*
NewService define new chat lifecycle service

	@param ctx context.Context - execution context
	@param params ServiceParams - service parameters
	@returns service instance
*/
func NewService(_ context.Context, params ServiceParams) (Service, error) {
	logTags := log.Fields{"package": "refchat", "module": "chat", "component": "lifecycle-service"}

	validate := validator.New()
	if err := validate.Struct(&params); err != nil {
		return nil, fmt.Errorf("invalid service init parameters [%w]", err)
	}

	instance := &serviceImpl{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		persistence:  params.Persistence,
		codec:        params.Codec,
		resolver:     params.Resolver,
		applications: params.Applications,
		referees:     params.Referees,
		email:        params.Email,
		whatsapp:     params.WhatsApp,
		baseURL:      strings.TrimRight(params.BaseURL, "/"),
	}

	return instance, nil
}

// chatURL build the referee access URL for a chat
func (s *serviceImpl) chatURL(chatID string, token string) string {
	return fmt.Sprintf("%s/chat/%s?token=%s", s.baseURL, chatID, token)
}

/*
CreateChat create the chat between an application's recruiter and one of its
referees

	@param ctx context.Context - execution context
	@param applicationID string - the application
	@param refereeID string - the referee to contact
	@param credential access.Credential - caller credential
	@returns the chat and its referee access URL
*/
func (s *serviceImpl) CreateChat(
	ctx context.Context, applicationID string, refereeID string, credential access.Credential,
) (CreateResult, error) {
	logTags := s.GetLogTagsForContext(ctx)

	if !credential.IsPresent() {
		return CreateResult{}, access.ErrAuthenticationMissing
	}
	principalID, isRecruiter := credential.PrincipalID()
	if !isRecruiter {
		// Token holders cannot initiate chats
		return CreateResult{}, access.ErrAccessDenied
	}

	if applicationID == "" {
		return CreateResult{}, &ValidationError{Field: "application_id", Reason: "required"}
	}
	if refereeID == "" {
		return CreateResult{}, &ValidationError{Field: "referee_id", Reason: "required"}
	}

	application, err := s.applications.GetApplication(ctx, applicationID)
	if err != nil {
		return CreateResult{}, fmt.Errorf("failed to fetch application %s [%w]", applicationID, err)
	}
	if application.RecruiterID != principalID {
		return CreateResult{}, ErrNotApplicationOwner
	}

	referee, err := s.referees.GetReferee(ctx, refereeID)
	if err != nil {
		return CreateResult{}, fmt.Errorf("failed to fetch referee %s [%w]", refereeID, err)
	}
	if referee.ApplicationID != applicationID {
		return CreateResult{}, fmt.Errorf(
			"referee %s is not named on application %s [%w]", refereeID, applicationID, collab.ErrNotFound,
		)
	}

	// Idempotent on the (application, referee) pair
	if existing, found, err := s.findExistingChat(ctx, applicationID, refereeID); err != nil {
		return CreateResult{}, err
	} else if found {
		return CreateResult{
			Chat:           existing,
			AccessURL:      s.chatURL(existing.ID, existing.RefereeToken),
			AlreadyExisted: true,
		}, nil
	}

	token, err := s.codec.GenerateAccessToken(ctx)
	if err != nil {
		return CreateResult{}, fmt.Errorf("failed to generate referee access token [%w]", err)
	}
	tokenHash := s.codec.HashAccessToken(token)

	var chat models.Chat
	if createErr := s.persistence.UseDatabaseInTransaction(
		ctx, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			chat, err = dbClient.CreateChat(dbCtx, applicationID, principalID, refereeID, tokenHash, token)
			return err
		},
	); createErr != nil {
		// Two concurrent creations can race past the existence check above;
		// the unique (application, referee) index stops the second insert.
		// Return the surviving chat instead of erroring.
		if raced, found, err := s.findExistingChat(ctx, applicationID, refereeID); err == nil && found {
			log.WithFields(logTags).
				WithField("chat", raced.ID).
				Warn("Chat creation raced an earlier insert, returning the surviving chat")
			return CreateResult{
				Chat:           raced,
				AccessURL:      s.chatURL(raced.ID, raced.RefereeToken),
				AlreadyExisted: true,
			}, nil
		}
		return CreateResult{}, fmt.Errorf(
			"failed to create chat for application %s referee %s [%w]", applicationID, refereeID, createErr,
		)
	}

	// One-way, one-time transition on the owning application. Repeat
	// create-chat calls never reach this; the chat already exists.
	if application.Status == models.ApplicationStatusUnderReview {
		if err := s.applications.MarkRefereeContacted(ctx, applicationID); err != nil {
			return CreateResult{}, fmt.Errorf(
				"failed to advance application %s status [%w]", applicationID, err,
			)
		}
		if dbErr := s.persistence.UseDatabase(
			ctx, func(dbCtx context.Context, dbClient db.Database) error {
				return dbClient.RecordApplicationAdvanced(dbCtx, chat)
			},
		); dbErr != nil {
			return CreateResult{}, dbErr
		}
	}

	accessURL := s.chatURL(chat.ID, token)

	if err := s.email.SendInvitation(
		ctx, referee.Email, referee.Name, accessURL, application.JobTitle, application.CompanyName,
	); err != nil {
		return CreateResult{}, fmt.Errorf(
			"failed to send referee invitation for chat %s [%w]", chat.ID, err,
		)
	}

	// Secondary channel failure never fails the operation
	if referee.Phone != "" && s.whatsapp != nil {
		if err := s.whatsapp.SendInvitation(
			ctx, referee.Phone, referee.Name, accessURL, application.JobTitle, application.CompanyName,
		); err != nil {
			log.WithError(err).
				WithFields(logTags).
				WithField("chat", chat.ID).
				Error("WhatsApp invitation dispatch failed")
		}
	}

	return CreateResult{Chat: chat, AccessURL: accessURL}, nil
}

// findExistingChat fetch the chat of an (application, referee) pair, if any
func (s *serviceImpl) findExistingChat(
	ctx context.Context, applicationID string, refereeID string,
) (models.Chat, bool, error) {
	var chat models.Chat
	found := false
	if dbErr := s.persistence.UseDatabase(
		ctx, func(dbCtx context.Context, dbClient db.Database) error {
			existing, err := dbClient.FindChatByApplicationAndReferee(dbCtx, applicationID, refereeID)
			if err != nil {
				// Only a missing row means "no chat yet"
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil
				}
				return err
			}
			chat = existing
			found = true
			return nil
		},
	); dbErr != nil {
		return models.Chat{}, false, fmt.Errorf(
			"failed to check for existing chat of application %s referee %s [%w]",
			applicationID,
			refereeID,
			dbErr,
		)
	}
	return chat, found, nil
}

/*
FetchChat fetch chat metadata, display data, and decrypted messages

	@param ctx context.Context - execution context
	@param chatID string - the chat
	@param credential access.Credential - caller credential
	@returns the chat detail
*/
func (s *serviceImpl) FetchChat(
	ctx context.Context, chatID string, credential access.Credential,
) (Detail, error) {
	chat, role, err := s.resolver.ResolveChatAccess(ctx, chatID, credential, nil)
	if err != nil {
		return Detail{}, err
	}

	messages, err := s.decryptedMessages(ctx, chat.ID)
	if err != nil {
		return Detail{}, err
	}

	application, err := s.applications.GetApplication(ctx, chat.ApplicationID)
	if err != nil {
		return Detail{}, fmt.Errorf(
			"failed to fetch application %s of chat %s [%w]", chat.ApplicationID, chat.ID, err,
		)
	}
	recruiter, err := s.applications.GetRecruiter(ctx, chat.RecruiterID)
	if err != nil {
		return Detail{}, fmt.Errorf(
			"failed to fetch recruiter %s of chat %s [%w]", chat.RecruiterID, chat.ID, err,
		)
	}
	referee, err := s.referees.GetReferee(ctx, chat.RefereeID)
	if err != nil {
		return Detail{}, fmt.Errorf(
			"failed to fetch referee %s of chat %s [%w]", chat.RefereeID, chat.ID, err,
		)
	}

	return Detail{
		Chat:        chat,
		Application: application,
		Recruiter:   recruiter,
		Referee:     referee,
		Messages:    messages,
		ViewerRole:  role,
	}, nil
}

/*
ListMessages fetch the decrypted message log

	@param ctx context.Context - execution context
	@param chatID string - the chat
	@param credential access.Credential - caller credential
	@returns messages in append order
*/
func (s *serviceImpl) ListMessages(
	ctx context.Context, chatID string, credential access.Credential,
) ([]MessageView, error) {
	chat, _, err := s.resolver.ResolveChatAccess(ctx, chatID, credential, nil)
	if err != nil {
		return nil, err
	}

	return s.decryptedMessages(ctx, chat.ID)
}

// decryptedMessages list and decrypt a chat's messages. One unreadable
// message must not hide the rest of the log; it comes back as a Corrupted
// placeholder and the integrity fault is logged loudly.
func (s *serviceImpl) decryptedMessages(
	ctx context.Context, chatID string,
) ([]MessageView, error) {
	logTags := s.GetLogTagsForContext(ctx)

	var stored []models.Message
	if dbErr := s.persistence.UseDatabase(
		ctx, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			stored, err = dbClient.ListMessages(dbCtx, chatID)
			return err
		},
	); dbErr != nil {
		return nil, fmt.Errorf("failed to list messages of chat %s [%w]", chatID, dbErr)
	}

	result := []MessageView{}
	for _, msg := range stored {
		view := MessageView{
			ID:         msg.ID,
			SenderType: msg.SenderType,
			IsRead:     msg.IsRead,
			CreatedAt:  msg.CreatedAt,
		}

		content, err := s.codec.DecryptMessage(ctx, msg.EncryptedContent)
		if err != nil {
			var decryptErr *encryption.DecryptionError
			if errors.As(err, &decryptErr) {
				log.WithError(err).
					WithFields(logTags).
					WithField("chat", chatID).
					WithField("message", msg.ID).
					Error("Stored message failed decryption")
				view.Corrupted = true
				result = append(result, view)
				continue
			}
			return nil, fmt.Errorf("failed to decrypt message %s [%w]", msg.ID, err)
		}

		view.Content = content
		result = append(result, view)
	}

	return result, nil
}

/*
SendMessage append one message to the chat

	@param ctx context.Context - execution context
	@param chatID string - the chat
	@param credential access.Credential - caller credential
	@param content string - message body, non-empty, at most 5000 characters
	@returns the appended message with plaintext content for display
*/
func (s *serviceImpl) SendMessage(
	ctx context.Context, chatID string, credential access.Credential, content string,
) (MessageView, error) {
	// Bounds are checked before any encryption work
	if strings.TrimSpace(content) == "" {
		return MessageView{}, &ValidationError{Field: "content", Reason: "message content is required"}
	}
	if utf8.RuneCountInString(content) > maxMessageLength {
		return MessageView{}, &ValidationError{
			Field:  "content",
			Reason: fmt.Sprintf("must not exceed %d characters", maxMessageLength),
		}
	}

	chat, role, err := s.resolver.ResolveChatAccess(ctx, chatID, credential, nil)
	if err != nil {
		return MessageView{}, err
	}

	encrypted, err := s.codec.EncryptMessage(ctx, content)
	if err != nil {
		return MessageView{}, fmt.Errorf("failed to encrypt message for chat %s [%w]", chat.ID, err)
	}

	var stored models.Message
	if dbErr := s.persistence.UseDatabaseInTransaction(
		ctx, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			stored, err = dbClient.AppendMessage(dbCtx, chat.ID, role, encrypted, time.Now().UTC())
			return err
		},
	); dbErr != nil {
		return MessageView{}, fmt.Errorf("failed to append message to chat %s [%w]", chat.ID, dbErr)
	}

	s.notifyCounterparty(ctx, chat, role)

	return MessageView{
		ID:         stored.ID,
		SenderType: role,
		Content:    content,
		CreatedAt:  stored.CreatedAt,
	}, nil
}

// notifyCounterparty alert the other side of the chat of a new message. The
// message is already durable, so dispatch failures are logged and swallowed.
func (s *serviceImpl) notifyCounterparty(
	ctx context.Context, chat models.Chat, senderType models.SenderTypeENUMType,
) {
	logTags := s.GetLogTagsForContext(ctx)

	var name, email, phone, chatURL string
	if senderType == models.SenderTypeReferee {
		recruiter, err := s.applications.GetRecruiter(ctx, chat.RecruiterID)
		if err != nil {
			log.WithError(err).
				WithFields(logTags).
				WithField("chat", chat.ID).
				Error("Failed to fetch recruiter for new-message alert")
			return
		}
		name = strings.TrimSpace(recruiter.FirstName + " " + recruiter.LastName)
		email = recruiter.Email
		phone = recruiter.Phone
		// Recruiter sessions get in without a token
		chatURL = fmt.Sprintf("%s/chat/%s", s.baseURL, chat.ID)
	} else {
		referee, err := s.referees.GetReferee(ctx, chat.RefereeID)
		if err != nil {
			log.WithError(err).
				WithFields(logTags).
				WithField("chat", chat.ID).
				Error("Failed to fetch referee for new-message alert")
			return
		}
		name = referee.Name
		email = referee.Email
		phone = referee.Phone
		// The stored token is the referee's only way back in
		chatURL = s.chatURL(chat.ID, chat.RefereeToken)
	}

	if err := s.email.SendNewMessageAlert(ctx, email, name, chatURL); err != nil {
		log.WithError(err).
			WithFields(logTags).
			WithField("chat", chat.ID).
			Error("Email new-message alert dispatch failed")
	}

	if phone != "" && s.whatsapp != nil {
		if err := s.whatsapp.SendNewMessageAlert(ctx, phone, name, chatURL); err != nil {
			log.WithError(err).
				WithFields(logTags).
				WithField("chat", chat.ID).
				Error("WhatsApp new-message alert dispatch failed")
		}
	}
}
