package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/oklog/ulid/v2"
	"github.com/vetline/refchat/models"
	"gorm.io/datatypes"
)

// defineNewChatEvent record a new chat audit event
func (d *databaseImpl) defineNewChatEvent(
	eventType models.ChatEventTypeENUMType, metadata interface{},
) (models.ChatEventAudit, error) {

	newEntry := ChatEventAuditDBEntry{
		ChatEventAudit: models.ChatEventAudit{ID: ulid.Make().String(), EventType: eventType},
	}

	if metadata != nil {
		if err := d.validator.Struct(metadata); err != nil {
			return models.ChatEventAudit{}, fmt.Errorf(
				"new chat event '%s' metadata entry is not valid [%w]", eventType, err,
			)
		}

		metadataStr, _ := json.Marshal(&metadata)
		newEntry.Metadata = datatypes.JSON(metadataStr)
	}

	if err := d.validator.Struct(&newEntry); err != nil {
		return models.ChatEventAudit{}, fmt.Errorf(
			"new chat event '%s' entry is not valid [%w]", eventType, err,
		)
	}

	if tmp := d.db.Create(&newEntry); tmp.Error != nil {
		return models.ChatEventAudit{}, fmt.Errorf(
			"new chat event '%s' insert failed [%w]", eventType, tmp.Error,
		)
	}

	return newEntry.ChatEventAudit, nil
}

/*
RecordApplicationAdvanced record that chat creation advanced the owning
application to REFEREE_CONTACTED

	@param ctx context.Context - execution context
	@param chat models.Chat - the chat whose creation triggered the transition
*/
func (d *databaseImpl) RecordApplicationAdvanced(
	_ context.Context, chat models.Chat,
) error {
	if _, err := d.defineNewChatEvent(
		models.ChatEventTypeApplicationAdvanced,
		models.ChatEventChatRelated{
			ChatID: chat.ID, ApplicationID: chat.ApplicationID, RefereeID: chat.RefereeID,
		},
	); err != nil {
		return fmt.Errorf(
			"failed to log application advanced audit event on chat %s [%w]", chat.ID, err,
		)
	}
	return nil
}

/*
ListChatEvents list captured chat audit events

	@param ctx context.Context - execution context
	@param filters ChatEventQueryFilter - entry listing filter
	@returns list of chat events
*/
func (d *databaseImpl) ListChatEvents(
	_ context.Context, filters ChatEventQueryFilter,
) ([]models.ChatEventAudit, error) {
	query := d.db.Model(&ChatEventAuditDBEntry{})

	if len(filters.EventTypes) > 0 {
		query = query.Where("type in ?", filters.EventTypes)
	}

	if filters.TargetChatID != nil {
		query = query.Where("metadata ->> 'chat_id' = ?", *filters.TargetChatID)
	}

	if filters.EventsAfter != nil {
		query = query.Where("created_at >= ?", *filters.EventsAfter)
	}
	if filters.EventsBefore != nil {
		query = query.Where("created_at <= ?", *filters.EventsBefore)
	}

	if filters.Limit != nil {
		query = query.Limit(*filters.Limit)
	}
	if filters.Offset != nil {
		query = query.Offset(*filters.Offset)
	}

	query = query.Order("created_at")

	var entries []ChatEventAuditDBEntry
	if tmp := query.Find(&entries); tmp.Error != nil {
		return nil, fmt.Errorf("failed to list captured chat events [%w]", tmp.Error)
	}

	result := []models.ChatEventAudit{}
	for _, entry := range entries {
		result = append(result, entry.ChatEventAudit)
	}

	return result, nil
}
