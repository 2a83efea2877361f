package db

import (
	"context"
	"fmt"
	"time"

	"github.com/apex/log"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/vetline/refchat/models"
)

// ======================================================================================
// Chats

/*
CreateChat insert a new chat record

	@param ctx context.Context - execution context
	@param applicationID string - the originating application
	@param recruiterID string - the recruiter creating the chat
	@param refereeID string - the referee the chat is for
	@param tokenHash string - hash of the referee capability token
	@param rawToken string - the plaintext capability token
	@returns the chat entry
*/
func (d *databaseImpl) CreateChat(
	_ context.Context,
	applicationID string,
	recruiterID string,
	refereeID string,
	tokenHash string,
	rawToken string,
) (models.Chat, error) {
	newEntry := ChatDBEntry{
		Chat: models.Chat{
			ID:            uuid.NewString(),
			ApplicationID: applicationID,
			RecruiterID:   recruiterID,
			RefereeID:     refereeID,
			TokenHash:     tokenHash,
			RefereeToken:  rawToken,
			IsActive:      true,
		},
	}

	if err := d.validator.Struct(&newEntry); err != nil {
		return models.Chat{}, fmt.Errorf(
			"new chat for application %s referee %s is not valid [%w]", applicationID, refereeID, err,
		)
	}

	if tmp := d.db.Create(&newEntry); tmp.Error != nil {
		return models.Chat{}, fmt.Errorf(
			"new chat for application %s referee %s failed insert [%w]",
			applicationID,
			refereeID,
			tmp.Error,
		)
	}

	// Record this event
	if _, err := d.defineNewChatEvent(
		models.ChatEventTypeChatCreated,
		models.ChatEventChatRelated{
			ChatID: newEntry.ID, ApplicationID: applicationID, RefereeID: refereeID,
		},
	); err != nil {
		return models.Chat{}, fmt.Errorf(
			"failed to log create chat %s audit event [%w]", newEntry.ID, err,
		)
	}

	return newEntry.Chat, nil
}

// getChatEntry find a chat by ID
func (d *databaseImpl) getChatEntry(chatID string) (ChatDBEntry, error) {
	var entry ChatDBEntry
	err := d.db.Where("id = ?", chatID).First(&entry).Error
	return entry, err
}

/*
GetChat fetch a chat by ID

	@param ctx context.Context - execution context
	@param chatID string - chat ID
	@returns the chat entry
*/
func (d *databaseImpl) GetChat(_ context.Context, chatID string) (models.Chat, error) {
	entry, err := d.getChatEntry(chatID)
	if err != nil {
		return models.Chat{}, fmt.Errorf("failed to fetch chat %s [%w]", chatID, err)
	}

	return entry.Chat, nil
}

/*
FindChatByApplicationAndReferee fetch the chat of an (application, referee) pair

	@param ctx context.Context - execution context
	@param applicationID string - the application
	@param refereeID string - the referee
	@returns the chat entry
*/
func (d *databaseImpl) FindChatByApplicationAndReferee(
	_ context.Context, applicationID string, refereeID string,
) (models.Chat, error) {
	var entry ChatDBEntry
	if tmp := d.db.Where(
		"application_id = ? AND referee_id = ?", applicationID, refereeID,
	).First(&entry); tmp.Error != nil {
		return models.Chat{}, fmt.Errorf(
			"failed to fetch chat of application %s referee %s [%w]", applicationID, refereeID, tmp.Error,
		)
	}

	return entry.Chat, nil
}

/*
FindChatForRecruiter fetch a chat matching both ID and owning recruiter

	@param ctx context.Context - execution context
	@param chatID string - chat ID
	@param recruiterID string - the recruiter principal
	@returns the chat entry
*/
func (d *databaseImpl) FindChatForRecruiter(
	_ context.Context, chatID string, recruiterID string,
) (models.Chat, error) {
	var entry ChatDBEntry
	if tmp := d.db.Where(
		"id = ? AND recruiter_id = ?", chatID, recruiterID,
	).First(&entry); tmp.Error != nil {
		return models.Chat{}, fmt.Errorf(
			"failed to fetch chat %s for recruiter %s [%w]", chatID, recruiterID, tmp.Error,
		)
	}

	return entry.Chat, nil
}

/*
FindChatByTokenHash fetch a chat matching both ID and referee token hash

	@param ctx context.Context - execution context
	@param chatID string - chat ID
	@param tokenHash string - hash of the presented bearer token
	@returns the chat entry
*/
func (d *databaseImpl) FindChatByTokenHash(
	_ context.Context, chatID string, tokenHash string,
) (models.Chat, error) {
	var entry ChatDBEntry
	if tmp := d.db.Where(
		"id = ? AND token_hash = ?", chatID, tokenHash,
	).First(&entry); tmp.Error != nil {
		return models.Chat{}, fmt.Errorf(
			"failed to fetch chat %s by token hash [%w]", chatID, tmp.Error,
		)
	}

	return entry.Chat, nil
}

/*
FindChatByLegacyRawToken fetch a chat matching ID and plaintext token

Deprecated: degraded-security fallback for chats created before token hashing
was introduced.

	@param ctx context.Context - execution context
	@param chatID string - chat ID
	@param rawToken string - the presented bearer token
	@returns the chat entry
*/
func (d *databaseImpl) FindChatByLegacyRawToken(
	ctx context.Context, chatID string, rawToken string,
) (models.Chat, error) {
	var entry ChatDBEntry
	if tmp := d.db.Where(
		"id = ? AND referee_token = ?", chatID, rawToken,
	).First(&entry); tmp.Error != nil {
		return models.Chat{}, fmt.Errorf(
			"failed to fetch chat %s by legacy raw token [%w]", chatID, tmp.Error,
		)
	}

	log.WithFields(d.GetLogTagsForContext(ctx)).
		WithField("chat", entry.ID).
		Warn("Referee token matched only via deprecated raw-token comparison")

	// Record this event so operators can track remaining unmigrated chats
	if _, err := d.defineNewChatEvent(
		models.ChatEventTypeTokenFallbackMatch,
		models.ChatEventChatRelated{
			ChatID: entry.ID, ApplicationID: entry.ApplicationID, RefereeID: entry.RefereeID,
		},
	); err != nil {
		return models.Chat{}, fmt.Errorf(
			"failed to log token fallback match on chat %s [%w]", entry.ID, err,
		)
	}

	return entry.Chat, nil
}

// ======================================================================================
// Messages

/*
AppendMessage append one message to a chat's ordered log

	@param ctx context.Context - execution context
	@param chatID string - the parent chat
	@param senderType models.SenderTypeENUMType - originating trust domain
	@param encryptedContent string - the encrypted message body
	@param timestamp time.Time - server-assigned append timestamp
	@returns the message entry
*/
func (d *databaseImpl) AppendMessage(
	_ context.Context,
	chatID string,
	senderType models.SenderTypeENUMType,
	encryptedContent string,
	timestamp time.Time,
) (models.Message, error) {
	newEntry := MessageDBEntry{
		Message: models.Message{
			ID:               ulid.Make().String(),
			ChatID:           chatID,
			SenderType:       senderType,
			EncryptedContent: encryptedContent,
			CreatedAt:        timestamp,
			UpdatedAt:        timestamp,
		},
	}

	if err := d.validator.Struct(&newEntry); err != nil {
		return models.Message{}, fmt.Errorf(
			"new message for chat %s is invalid [%w]", chatID, err,
		)
	}

	if tmp := d.db.Create(&newEntry); tmp.Error != nil {
		return models.Message{}, fmt.Errorf(
			"new message for chat %s insert failed [%w]", chatID, tmp.Error,
		)
	}

	// Record this event
	if _, err := d.defineNewChatEvent(
		models.ChatEventTypeMessageAppended,
		models.ChatEventMessageRelated{
			ChatID: chatID, MessageID: newEntry.ID, SenderType: senderType,
		},
	); err != nil {
		return models.Message{}, fmt.Errorf(
			"failed to log append message audit event on chat %s [%w]", chatID, err,
		)
	}

	return newEntry.Message, nil
}

/*
ListMessages list a chat's messages in append order

	@param ctx context.Context - execution context
	@param chatID string - the parent chat
	@returns messages in append order
*/
func (d *databaseImpl) ListMessages(
	_ context.Context, chatID string,
) ([]models.Message, error) {
	// ULID IDs sort in creation order, which breaks ties between messages
	// appended within the same timestamp granularity
	var entries []MessageDBEntry
	if tmp := d.db.Where("chat_id = ?", chatID).
		Order("created_at").
		Order("id").
		Find(&entries); tmp.Error != nil {
		return nil, fmt.Errorf("failed to list messages of chat %s [%w]", chatID, tmp.Error)
	}

	result := []models.Message{}
	for _, entry := range entries {
		result = append(result, entry.Message)
	}

	return result, nil
}
