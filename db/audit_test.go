package db_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/apex/log"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/vetline/refchat/db"
	"github.com/vetline/refchat/models"
	"gorm.io/gorm/logger"
)

// TestDBChatEventAudit verifies the audit trail API:
//   - RecordApplicationAdvanced
//   - ListChatEvents
//
// The test performs the following steps:
//
//  1. Create two chats.
//  2. Record an application advancement against chat 1.
//  3. List events filtered to chat 1 - the CHAT_CREATED and
//     APPLICATION_STATUS_ADVANCED events appear, chat 2's do not.
//  4. Parse the advancement event metadata and verify its fields.
func TestDBChatEventAudit(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	// Create a unique temporary DB file for this test
	testDB := fmt.Sprintf("/tmp/refchat_ut_%s.db", ulid.Make().String())
	log.WithField("db", testDB).Debug("Test database")

	uut, err := db.NewConnection(db.GetSqliteDialector(testDB), logger.Error)
	assert.Nil(err)

	// Create database tables
	assert.Nil(uut.RunSQLInTransaction(utCtx, db.DefineTables))

	validate := validator.New()
	assert.Nil(models.RegisterWithValidator(validate))

	// 1. Create two chats
	var chat1, chat2 models.Chat
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		var err error
		chat1, err = dbClient.CreateChat(
			ctx, uuid.NewString(), uuid.NewString(), uuid.NewString(), fmt.Sprintf("%064d", 1), uuid.NewString(),
		)
		if err != nil {
			return err
		}
		chat2, err = dbClient.CreateChat(
			ctx, uuid.NewString(), uuid.NewString(), uuid.NewString(), fmt.Sprintf("%064d", 2), uuid.NewString(),
		)
		return err
	})
	assert.Nil(err)

	// 2. Record application advancement on chat 1
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		return dbClient.RecordApplicationAdvanced(ctx, chat1)
	})
	assert.Nil(err)

	// 3. Filter events to chat 1
	err = uut.UseDatabase(utCtx, func(ctx context.Context, dbClient db.Database) error {
		events, err := dbClient.ListChatEvents(ctx, db.ChatEventQueryFilter{
			TargetChatID: &chat1.ID,
		})
		if err != nil {
			return err
		}
		assert.Len(events, 2)

		seenTypes := map[models.ChatEventTypeENUMType]models.ChatEventAudit{}
		for _, event := range events {
			seenTypes[event.EventType] = event
		}
		assert.Contains(seenTypes, models.ChatEventTypeChatCreated)
		assert.Contains(seenTypes, models.ChatEventTypeApplicationAdvanced)

		// 4. Parse the advancement metadata
		parsed, err := seenTypes[models.ChatEventTypeApplicationAdvanced].ParseMetadata(validate)
		if err != nil {
			return err
		}
		metadata, ok := parsed.(models.ChatEventChatRelated)
		assert.True(ok)
		assert.Equal(chat1.ID, metadata.ChatID)
		assert.Equal(chat1.ApplicationID, metadata.ApplicationID)

		// Chat 2 only has its creation event
		chat2Events, err := dbClient.ListChatEvents(ctx, db.ChatEventQueryFilter{
			TargetChatID: &chat2.ID,
		})
		if err != nil {
			return err
		}
		assert.Len(chat2Events, 1)
		return nil
	})
	assert.Nil(err)
}
