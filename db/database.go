package db

import (
	"context"
	"fmt"
	"time"

	"github.com/alwitt/goutils"
	"github.com/apex/log"
	"github.com/go-playground/validator/v10"
	"github.com/vetline/refchat/models"
	"gorm.io/gorm"
)

// CommonListEntryQueryFilter common query filter when listing data entries
type CommonListEntryQueryFilter struct {
	Limit  *int
	Offset *int
}

// ChatEventQueryFilter audit event query filter conditions
type ChatEventQueryFilter struct {
	CommonListEntryQueryFilter
	// EventTypes the specific event types to query for
	EventTypes []models.ChatEventTypeENUMType
	// TargetChatID filter for events belonging to this chat
	TargetChatID *string
	// EventsAfter filter for events after this timestamp
	EventsAfter *time.Time
	// EventsBefore filter for events before this timestamp
	EventsBefore *time.Time
}

// Database the database handle for interacting with the database
type Database interface {
	// ------------------------------------------------------------------------------------
	// Chats

	/*
		CreateChat insert a new chat record

		The (applicationID, refereeID) pair carries a unique index; inserting a
		second chat for the same pair fails at the constraint, never silently.

			@param ctx context.Context - execution context
			@param applicationID string - the originating application
			@param recruiterID string - the recruiter creating the chat
			@param refereeID string - the referee the chat is for
			@param tokenHash string - hash of the referee capability token
			@param rawToken string - the plaintext capability token
			@returns the chat entry
	*/
	CreateChat(
		ctx context.Context,
		applicationID string,
		recruiterID string,
		refereeID string,
		tokenHash string,
		rawToken string,
	) (models.Chat, error)

	/*
		GetChat fetch a chat by ID

			@param ctx context.Context - execution context
			@param chatID string - chat ID
			@returns the chat entry
	*/
	GetChat(ctx context.Context, chatID string) (models.Chat, error)

	/*
		FindChatByApplicationAndReferee fetch the chat of an (application, referee) pair

			@param ctx context.Context - execution context
			@param applicationID string - the application
			@param refereeID string - the referee
			@returns the chat entry
	*/
	FindChatByApplicationAndReferee(
		ctx context.Context, applicationID string, refereeID string,
	) (models.Chat, error)

	/*
		FindChatForRecruiter fetch a chat matching both ID and owning recruiter

		Owner matching happens inside the one query so a non-owning recruiter
		cannot learn whether the chat exists.

			@param ctx context.Context - execution context
			@param chatID string - chat ID
			@param recruiterID string - the recruiter principal
			@returns the chat entry
	*/
	FindChatForRecruiter(
		ctx context.Context, chatID string, recruiterID string,
	) (models.Chat, error)

	/*
		FindChatByTokenHash fetch a chat matching both ID and referee token hash

			@param ctx context.Context - execution context
			@param chatID string - chat ID
			@param tokenHash string - hash of the presented bearer token
			@returns the chat entry
	*/
	FindChatByTokenHash(
		ctx context.Context, chatID string, tokenHash string,
	) (models.Chat, error)

	/*
		FindChatByLegacyRawToken fetch a chat matching ID and plaintext token

		Deprecated: degraded-security fallback for chats created before token
		hashing was introduced. Every hit is recorded as a TOKEN_FALLBACK_MATCH
		audit event. Remove once no unhashed-token chats remain.

			@param ctx context.Context - execution context
			@param chatID string - chat ID
			@param rawToken string - the presented bearer token
			@returns the chat entry
	*/
	FindChatByLegacyRawToken(
		ctx context.Context, chatID string, rawToken string,
	) (models.Chat, error)

	// ------------------------------------------------------------------------------------
	// Messages

	/*
		AppendMessage append one message to a chat's ordered log

		This is the only mutation path for messages; entries are never updated
		or deleted.

			@param ctx context.Context - execution context
			@param chatID string - the parent chat
			@param senderType models.SenderTypeENUMType - originating trust domain
			@param encryptedContent string - the encrypted message body
			@param timestamp time.Time - server-assigned append timestamp
			@returns the message entry
	*/
	AppendMessage(
		ctx context.Context,
		chatID string,
		senderType models.SenderTypeENUMType,
		encryptedContent string,
		timestamp time.Time,
	) (models.Message, error)

	/*
		ListMessages list a chat's messages in append order

		The result is stable and restartable; callers may re-fetch identically
		at any time.

			@param ctx context.Context - execution context
			@param chatID string - the parent chat
			@returns messages in append order
	*/
	ListMessages(ctx context.Context, chatID string) ([]models.Message, error)

	// ------------------------------------------------------------------------------------
	// Audit events

	/*
		RecordApplicationAdvanced record that chat creation advanced the owning
		application to REFEREE_CONTACTED

			@param ctx context.Context - execution context
			@param chat models.Chat - the chat whose creation triggered the transition
	*/
	RecordApplicationAdvanced(ctx context.Context, chat models.Chat) error

	/*
		ListChatEvents list captured chat audit events

			@param ctx context.Context - execution context
			@param filters ChatEventQueryFilter - entry listing filter
			@returns list of chat events
	*/
	ListChatEvents(
		ctx context.Context, filters ChatEventQueryFilter,
	) ([]models.ChatEventAudit, error)
}

// databaseImpl implements Database
type databaseImpl struct {
	goutils.Component
	db        *gorm.DB
	validator *validator.Validate
}

// newDatabase define a new database client
func newDatabase(_ context.Context, sqlClient *gorm.DB) (Database, error) {
	logTags := log.Fields{"package": "refchat", "module": "db", "component": "db-client"}

	instance := &databaseImpl{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		db:        sqlClient,
		validator: validator.New(),
	}

	if err := models.RegisterWithValidator(instance.validator); err != nil {
		return nil, fmt.Errorf("failed to install custom validation macros [%w]", err)
	}

	return instance, nil
}
