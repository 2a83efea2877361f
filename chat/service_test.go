package chat_test

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/apex/log"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/vetline/refchat/access"
	"github.com/vetline/refchat/chat"
	"github.com/vetline/refchat/collab"
	"github.com/vetline/refchat/db"
	"github.com/vetline/refchat/encryption"
	mockcollab "github.com/vetline/refchat/mocks/collab"
	mocknotify "github.com/vetline/refchat/mocks/notify"
	"github.com/vetline/refchat/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// serviceTestEnv shared fixtures for chat service tests
type serviceTestEnv struct {
	dbFile       string
	persistence  db.Client
	codec        encryption.CredentialCodec
	applications *mockcollab.ApplicationDirectory
	referees     *mockcollab.RefereeDirectory
	email        *mocknotify.Dispatcher
	whatsapp     *mocknotify.Dispatcher
	uut          chat.Service
}

func defineServiceTestEnv(t *testing.T) serviceTestEnv {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	// Create a unique temporary DB file for this test
	testDB := fmt.Sprintf("/tmp/refchat_ut_%s.db", ulid.Make().String())
	log.WithField("db", testDB).Debug("Test database")

	persistence, err := db.NewConnection(db.GetSqliteDialector(testDB), logger.Error)
	assert.Nil(err)

	// Create database tables
	assert.Nil(persistence.RunSQLInTransaction(utCtx, db.DefineTables))

	codec, err := encryption.NewCredentialCodec(utCtx, encryption.CredentialCodecParams{
		MasterSecret: uuid.NewString(),
	})
	assert.Nil(err)

	resolver, err := access.NewResolver(utCtx, persistence, codec)
	assert.Nil(err)

	env := serviceTestEnv{
		dbFile:       testDB,
		persistence:  persistence,
		codec:        codec,
		applications: mockcollab.NewApplicationDirectory(t),
		referees:     mockcollab.NewRefereeDirectory(t),
		email:        mocknotify.NewDispatcher(t),
		whatsapp:     mocknotify.NewDispatcher(t),
	}

	env.uut, err = chat.NewService(utCtx, chat.ServiceParams{
		Persistence:  persistence,
		Codec:        codec,
		Resolver:     resolver,
		Applications: env.applications,
		Referees:     env.referees,
		Email:        env.email,
		WhatsApp:     env.whatsapp,
		BaseURL:      "https://jobs.example.com",
	})
	assert.Nil(err)

	return env
}

// TestChatCreation covers the chat creation flow:
//
//  1. First creation returns a chat and an access URL carrying the token,
//     advances the UNDER_REVIEW application, and sends one invitation.
//  2. A repeat creation for the same pair returns the existing chat, sends
//     nothing, and touches no application state.
func TestChatCreation(t *testing.T) {
	assert := assert.New(t)
	utCtx := context.Background()

	env := defineServiceTestEnv(t)

	applicationID := uuid.NewString()
	recruiterID := uuid.NewString()
	refereeID := uuid.NewString()

	application := collab.ApplicationSummary{
		ID:          applicationID,
		JobID:       uuid.NewString(),
		RecruiterID: recruiterID,
		Status:      models.ApplicationStatusUnderReview,
		JobTitle:    "Site Reliability Engineer",
		CompanyName: "Initech",
	}
	referee := collab.RefereeProfile{
		ID:            refereeID,
		ApplicationID: applicationID,
		Name:          "Jordan Park",
		Email:         "jordan@example.com",
	}

	env.applications.On("GetApplication", mock.Anything, applicationID).Return(application, nil).Twice()
	env.referees.On("GetReferee", mock.Anything, refereeID).Return(referee, nil).Twice()
	env.applications.On("MarkRefereeContacted", mock.Anything, applicationID).Return(nil).Once()
	env.email.On(
		"SendInvitation",
		mock.Anything,
		referee.Email,
		referee.Name,
		mock.AnythingOfType("string"),
		application.JobTitle,
		application.CompanyName,
	).Return(nil).Once()

	// 1. First creation
	result, err := env.uut.CreateChat(
		utCtx, applicationID, refereeID, access.RecruiterSession(recruiterID),
	)
	assert.Nil(err)
	assert.False(result.AlreadyExisted)
	assert.NotEmpty(result.Chat.ID)
	assert.Equal(
		fmt.Sprintf("https://jobs.example.com/chat/%s?token=", result.Chat.ID),
		result.AccessURL[:strings.Index(result.AccessURL, "=")+1],
	)
	token := result.AccessURL[strings.Index(result.AccessURL, "=")+1:]
	assert.Equal(env.codec.HashAccessToken(token), result.Chat.TokenHash)

	// The status advancement is recorded in the audit trail
	err = env.persistence.UseDatabase(utCtx, func(ctx context.Context, dbClient db.Database) error {
		events, err := dbClient.ListChatEvents(ctx, db.ChatEventQueryFilter{
			EventTypes: []models.ChatEventTypeENUMType{models.ChatEventTypeApplicationAdvanced},
		})
		if err != nil {
			return err
		}
		assert.Len(events, 1)
		return nil
	})
	assert.Nil(err)

	// 2. Repeat creation is a read
	repeat, err := env.uut.CreateChat(
		utCtx, applicationID, refereeID, access.RecruiterSession(recruiterID),
	)
	assert.Nil(err)
	assert.True(repeat.AlreadyExisted)
	assert.Equal(result.Chat.ID, repeat.Chat.ID)
	assert.Equal(result.AccessURL, repeat.AccessURL)
}

// TestChatCreationAuthorization covers the rejection paths of chat creation.
func TestChatCreationAuthorization(t *testing.T) {
	assert := assert.New(t)
	utCtx := context.Background()

	env := defineServiceTestEnv(t)

	applicationID := uuid.NewString()
	recruiterID := uuid.NewString()
	refereeID := uuid.NewString()

	// Case 0: no credential
	{
		_, err := env.uut.CreateChat(utCtx, applicationID, refereeID, access.Anonymous())
		assert.ErrorIs(err, access.ErrAuthenticationMissing)
	}

	// Case 1: referee tokens cannot create chats
	{
		_, err := env.uut.CreateChat(
			utCtx, applicationID, refereeID, access.RefereeToken(uuid.NewString()),
		)
		assert.ErrorIs(err, access.ErrAccessDenied)
	}

	// Case 2: blank inputs
	{
		_, err := env.uut.CreateChat(utCtx, "", refereeID, access.RecruiterSession(recruiterID))
		var validationErr *chat.ValidationError
		assert.ErrorAs(err, &validationErr)
	}

	application := collab.ApplicationSummary{
		ID:          applicationID,
		JobID:       uuid.NewString(),
		RecruiterID: recruiterID,
		Status:      models.ApplicationStatusUnderReview,
	}

	// Case 3: the application belongs to another recruiter
	{
		env.applications.On("GetApplication", mock.Anything, applicationID).Return(application, nil).Once()
		_, err := env.uut.CreateChat(
			utCtx, applicationID, refereeID, access.RecruiterSession(uuid.NewString()),
		)
		assert.ErrorIs(err, chat.ErrNotApplicationOwner)
	}

	// Case 4: the referee belongs to another application
	{
		env.applications.On("GetApplication", mock.Anything, applicationID).Return(application, nil).Once()
		env.referees.On("GetReferee", mock.Anything, refereeID).Return(collab.RefereeProfile{
			ID:            refereeID,
			ApplicationID: uuid.NewString(),
			Name:          "Jordan Park",
			Email:         "jordan@example.com",
		}, nil).Once()
		_, err := env.uut.CreateChat(
			utCtx, applicationID, refereeID, access.RecruiterSession(recruiterID),
		)
		assert.ErrorIs(err, collab.ErrNotFound)
	}
}

// TestSendAndFetchMessages covers the message exchange flow:
//
//  1. Create a chat.
//  2. The recruiter sends a message; the referee is alerted.
//  3. The referee replies via token; the recruiter is alerted.
//  4. Both parties fetch the chat and see both messages decrypted, in
//     order, with the correct sender types and viewer roles.
//  5. Oversized and blank messages are rejected before storage.
func TestSendAndFetchMessages(t *testing.T) {
	assert := assert.New(t)
	utCtx := context.Background()

	env := defineServiceTestEnv(t)

	applicationID := uuid.NewString()
	recruiterID := uuid.NewString()
	refereeID := uuid.NewString()

	application := collab.ApplicationSummary{
		ID:          applicationID,
		JobID:       uuid.NewString(),
		RecruiterID: recruiterID,
		Status:      models.ApplicationStatusRefereeContacted,
		JobTitle:    "Data Engineer",
		CompanyName: "Globex",
	}
	recruiter := collab.RecruiterProfile{
		ID:        recruiterID,
		FirstName: "Avery",
		LastName:  "Chen",
		Email:     "avery@globex.example.com",
	}
	referee := collab.RefereeProfile{
		ID:            refereeID,
		ApplicationID: applicationID,
		Name:          "Jordan Park",
		Email:         "jordan@example.com",
	}

	env.applications.On("GetApplication", mock.Anything, applicationID).Return(application, nil)
	env.applications.On("GetRecruiter", mock.Anything, recruiterID).Return(recruiter, nil)
	env.referees.On("GetReferee", mock.Anything, refereeID).Return(referee, nil)
	env.email.On(
		"SendInvitation", mock.Anything, referee.Email, referee.Name,
		mock.AnythingOfType("string"), application.JobTitle, application.CompanyName,
	).Return(nil).Once()
	env.email.On(
		"SendNewMessageAlert", mock.Anything, referee.Email, referee.Name,
		mock.AnythingOfType("string"),
	).Return(nil).Once()
	env.email.On(
		"SendNewMessageAlert", mock.Anything, recruiter.Email, "Avery Chen",
		mock.AnythingOfType("string"),
	).Return(nil).Once()

	// 1. Create the chat
	result, err := env.uut.CreateChat(
		utCtx, applicationID, refereeID, access.RecruiterSession(recruiterID),
	)
	assert.Nil(err)
	chatID := result.Chat.ID
	token := result.AccessURL[strings.Index(result.AccessURL, "=")+1:]

	// 2. Recruiter sends
	sent1, err := env.uut.SendMessage(
		utCtx, chatID, access.RecruiterSession(recruiterID), "Could you confirm the dates?",
	)
	assert.Nil(err)
	assert.Equal(models.SenderTypeRecruiter, sent1.SenderType)
	assert.Equal("Could you confirm the dates?", sent1.Content)

	// 3. Referee replies
	sent2, err := env.uut.SendMessage(
		utCtx, chatID, access.RefereeToken(token), "Available Tuesday 3pm",
	)
	assert.Nil(err)
	assert.Equal(models.SenderTypeReferee, sent2.SenderType)

	// 4. Fetch from both sides
	asRecruiter, err := env.uut.FetchChat(utCtx, chatID, access.RecruiterSession(recruiterID))
	assert.Nil(err)
	assert.Equal(models.SenderTypeRecruiter, asRecruiter.ViewerRole)
	assert.Len(asRecruiter.Messages, 2)
	assert.Equal("Could you confirm the dates?", asRecruiter.Messages[0].Content)
	assert.Equal("Available Tuesday 3pm", asRecruiter.Messages[1].Content)

	asReferee, err := env.uut.FetchChat(utCtx, chatID, access.RefereeToken(token))
	assert.Nil(err)
	assert.Equal(models.SenderTypeReferee, asReferee.ViewerRole)
	assert.Equal(application.JobTitle, asReferee.Application.JobTitle)
	assert.Equal(recruiter.Email, asReferee.Recruiter.Email)

	// Stored content is never plaintext
	err = env.persistence.UseDatabase(utCtx, func(ctx context.Context, dbClient db.Database) error {
		stored, err := dbClient.ListMessages(ctx, chatID)
		if err != nil {
			return err
		}
		for _, msg := range stored {
			assert.NotContains(msg.EncryptedContent, "Tuesday")
			assert.NotContains(msg.EncryptedContent, "dates")
		}
		return nil
	})
	assert.Nil(err)

	// 5. Rejected payloads
	{
		_, err := env.uut.SendMessage(utCtx, chatID, access.RefereeToken(token), "   \n\t ")
		var validationErr *chat.ValidationError
		assert.ErrorAs(err, &validationErr)

		_, err = env.uut.SendMessage(
			utCtx, chatID, access.RefereeToken(token), strings.Repeat("á", 5001),
		)
		assert.ErrorAs(err, &validationErr)

		// 5000 runes exactly is allowed
		env.email.On(
			"SendNewMessageAlert", mock.Anything, recruiter.Email, "Avery Chen",
			mock.AnythingOfType("string"),
		).Return(nil).Once()
		_, err = env.uut.SendMessage(
			utCtx, chatID, access.RefereeToken(token), strings.Repeat("á", 5000),
		)
		assert.Nil(err)
	}
}

// TestCorruptMessageIsolation verifies that one undecryptable message comes
// back flagged as corrupted without hiding the rest of the log.
func TestCorruptMessageIsolation(t *testing.T) {
	assert := assert.New(t)
	utCtx := context.Background()

	env := defineServiceTestEnv(t)

	recruiterID := uuid.NewString()

	// Build the chat directly in the store
	token, err := env.codec.GenerateAccessToken(utCtx)
	assert.Nil(err)
	var testChat models.Chat
	err = env.persistence.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		created, err := dbClient.CreateChat(
			ctx, uuid.NewString(), recruiterID, uuid.NewString(),
			env.codec.HashAccessToken(token), token,
		)
		if err != nil {
			return err
		}
		testChat = created
		return nil
	})
	assert.Nil(err)

	// Two good messages around one corrupted blob
	goodBlob1, err := env.codec.EncryptMessage(utCtx, "first")
	assert.Nil(err)
	corruptBlob := base64.StdEncoding.EncodeToString([]byte("not a valid ciphertext blob at all"))
	goodBlob2, err := env.codec.EncryptMessage(utCtx, "third")
	assert.Nil(err)

	baseTime := time.Now().UTC()
	for idx, blob := range []string{goodBlob1, corruptBlob, goodBlob2} {
		err = env.persistence.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
			_, err := dbClient.AppendMessage(
				ctx, testChat.ID, models.SenderTypeRecruiter, blob, baseTime.Add(time.Duration(idx)*time.Second),
			)
			return err
		})
		assert.Nil(err)
	}

	messages, err := env.uut.ListMessages(utCtx, testChat.ID, access.RecruiterSession(recruiterID))
	assert.Nil(err)
	assert.Len(messages, 3)

	assert.False(messages[0].Corrupted)
	assert.Equal("first", messages[0].Content)

	assert.True(messages[1].Corrupted)
	assert.Empty(messages[1].Content)

	assert.False(messages[2].Corrupted)
	assert.Equal("third", messages[2].Content)
}

// TestChatCreationStoreFault covers persistence faults during the existence
// check:
//
//  1. Break the store by dropping the chats table underneath the service.
//  2. Chat creation must fail on the existence check itself, not fall
//     through to the insert as if no chat existed.
func TestChatCreationStoreFault(t *testing.T) {
	assert := assert.New(t)
	utCtx := context.Background()

	env := defineServiceTestEnv(t)

	applicationID := uuid.NewString()
	recruiterID := uuid.NewString()
	refereeID := uuid.NewString()

	env.applications.On("GetApplication", mock.Anything, applicationID).Return(
		collab.ApplicationSummary{
			ID:          applicationID,
			JobID:       uuid.NewString(),
			RecruiterID: recruiterID,
			Status:      models.ApplicationStatusUnderReview,
			JobTitle:    "Site Reliability Engineer",
			CompanyName: "Initech",
		}, nil,
	).Once()
	env.referees.On("GetReferee", mock.Anything, refereeID).Return(
		collab.RefereeProfile{
			ID:            refereeID,
			ApplicationID: applicationID,
			Name:          "Jordan Park",
			Email:         "jordan@example.com",
		}, nil,
	).Once()

	// 1. Break the store
	conn, err := gorm.Open(db.GetSqliteDialector(env.dbFile), &gorm.Config{})
	assert.Nil(err)
	assert.Nil(conn.Migrator().DropTable(&db.ChatDBEntry{}))

	// 2. Creation surfaces the lookup fault
	_, err = env.uut.CreateChat(
		utCtx, applicationID, refereeID, access.RecruiterSession(recruiterID),
	)
	assert.NotNil(err)
	assert.Contains(err.Error(), "failed to check for existing chat")
}
