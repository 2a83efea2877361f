package apis_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/apex/log"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/vetline/refchat/access"
	"github.com/vetline/refchat/apis"
	"github.com/vetline/refchat/chat"
	"github.com/vetline/refchat/collab"
	"github.com/vetline/refchat/db"
	"github.com/vetline/refchat/encryption"
	mockcollab "github.com/vetline/refchat/mocks/collab"
	mocknotify "github.com/vetline/refchat/mocks/notify"
	"github.com/vetline/refchat/models"
	"gorm.io/gorm/logger"
)

// apiTestEnv shared fixtures for HTTP surface tests
type apiTestEnv struct {
	applications *mockcollab.ApplicationDirectory
	referees     *mockcollab.RefereeDirectory
	email        *mocknotify.Dispatcher
	router       *mux.Router
}

func defineAPITestEnv(t *testing.T) apiTestEnv {
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

	env := apiTestEnv{
		applications: mockcollab.NewApplicationDirectory(t),
		referees:     mockcollab.NewRefereeDirectory(t),
		email:        mocknotify.NewDispatcher(t),
	}

	service, err := chat.NewService(utCtx, chat.ServiceParams{
		Persistence:  persistence,
		Codec:        codec,
		Resolver:     resolver,
		Applications: env.applications,
		Referees:     env.referees,
		Email:        env.email,
		BaseURL:      "https://jobs.example.com",
	})
	assert.Nil(err)

	env.router, err = apis.BuildChatRouter(utCtx, service, collab.NewGatewaySessionVerifier())
	assert.Nil(err)

	return env
}

// asRecruiter attach the gateway identity headers of a recruiter session
func asRecruiter(req *http.Request, recruiterID string) *http.Request {
	req.Header.Set("X-Auth-Principal", recruiterID)
	req.Header.Set("X-Auth-Role", collab.RoleRecruiter)
	return req
}

// TestAPIChatLifecycle exercises the full HTTP surface:
//
//  1. POST /v1/chats as the recruiter returns 201 with a chat URL.
//  2. Repeating the POST returns 200 with the same chat.
//  3. The referee uses the token to GET the chat and POST a reply.
//  4. The recruiter reads the reply back.
func TestAPIChatLifecycle(t *testing.T) {
	assert := assert.New(t)

	env := defineAPITestEnv(t)

	applicationID := uuid.NewString()
	recruiterID := uuid.NewString()
	refereeID := uuid.NewString()

	application := collab.ApplicationSummary{
		ID:          applicationID,
		JobID:       uuid.NewString(),
		RecruiterID: recruiterID,
		Status:      models.ApplicationStatusUnderReview,
		JobTitle:    "Platform Engineer",
		CompanyName: "Hooli",
	}
	recruiter := collab.RecruiterProfile{
		ID:        recruiterID,
		FirstName: "Sam",
		LastName:  "Reyes",
		Email:     "sam@hooli.example.com",
	}
	referee := collab.RefereeProfile{
		ID:            refereeID,
		ApplicationID: applicationID,
		Name:          "Jordan Park",
		Email:         "jordan@example.com",
	}

	env.applications.On("GetApplication", mock.Anything, applicationID).Return(application, nil)
	env.applications.On("GetRecruiter", mock.Anything, recruiterID).Return(recruiter, nil)
	env.applications.On("MarkRefereeContacted", mock.Anything, applicationID).Return(nil).Once()
	env.referees.On("GetReferee", mock.Anything, refereeID).Return(referee, nil)
	env.email.On(
		"SendInvitation", mock.Anything, referee.Email, referee.Name,
		mock.AnythingOfType("string"), application.JobTitle, application.CompanyName,
	).Return(nil).Once()
	env.email.On(
		"SendNewMessageAlert", mock.Anything, recruiter.Email, "Sam Reyes",
		mock.AnythingOfType("string"),
	).Return(nil).Once()

	// 1. Create the chat
	body, err := json.Marshal(apis.CreateChatRequest{
		ApplicationID: applicationID, RefereeID: refereeID,
	})
	assert.Nil(err)
	req := asRecruiter(
		httptest.NewRequest(http.MethodPost, "/v1/chats", bytes.NewReader(body)), recruiterID,
	)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(http.StatusCreated, rec.Code)

	var created chat.CreateResult
	assert.Nil(json.NewDecoder(rec.Body).Decode(&created))
	assert.NotEmpty(created.Chat.ID)
	assert.Contains(created.AccessURL, "?token=")

	// 2. Repeat creation returns 200
	req = asRecruiter(
		httptest.NewRequest(http.MethodPost, "/v1/chats", bytes.NewReader(body)), recruiterID,
	)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(http.StatusOK, rec.Code)

	// 3. The referee reads the chat and replies using the token link
	accessURL, err := url.Parse(created.AccessURL)
	assert.Nil(err)
	token := accessURL.Query().Get("token")
	assert.NotEmpty(token)

	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(
		http.MethodGet, fmt.Sprintf("/v1/chats/%s?token=%s", created.Chat.ID, token), nil,
	))
	assert.Equal(http.StatusOK, rec.Code)

	var detail chat.Detail
	assert.Nil(json.NewDecoder(rec.Body).Decode(&detail))
	assert.Equal(models.SenderTypeReferee, detail.ViewerRole)
	assert.Equal(application.JobTitle, detail.Application.JobTitle)

	replyBody, err := json.Marshal(apis.SendMessageRequest{Content: "Happy to provide a reference"})
	assert.Nil(err)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(
		http.MethodPost,
		fmt.Sprintf("/v1/chats/%s/messages?token=%s", created.Chat.ID, token),
		bytes.NewReader(replyBody),
	))
	assert.Equal(http.StatusCreated, rec.Code)

	// 4. The recruiter reads the reply
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, asRecruiter(httptest.NewRequest(
		http.MethodGet, fmt.Sprintf("/v1/chats/%s/messages", created.Chat.ID), nil,
	), recruiterID))
	assert.Equal(http.StatusOK, rec.Code)

	var messages []chat.MessageView
	assert.Nil(json.NewDecoder(rec.Body).Decode(&messages))
	assert.Len(messages, 1)
	assert.Equal("Happy to provide a reference", messages[0].Content)
	assert.Equal(models.SenderTypeReferee, messages[0].SenderType)
}

// TestAPIErrorTaxonomy verifies the HTTP status mapping:
//
//   - No credential yields 401.
//   - A bad token and a missing chat are both 404 with identical bodies.
//   - A foreign recruiter's creation attempt yields 403.
//   - Malformed payloads yield 400.
func TestAPIErrorTaxonomy(t *testing.T) {
	assert := assert.New(t)

	env := defineAPITestEnv(t)

	applicationID := uuid.NewString()
	recruiterID := uuid.NewString()
	refereeID := uuid.NewString()

	application := collab.ApplicationSummary{
		ID:          applicationID,
		JobID:       uuid.NewString(),
		RecruiterID: recruiterID,
		Status:      models.ApplicationStatusUnderReview,
		JobTitle:    "QA Engineer",
		CompanyName: "Initrode",
	}
	referee := collab.RefereeProfile{
		ID:            refereeID,
		ApplicationID: applicationID,
		Name:          "Jordan Park",
		Email:         "jordan@example.com",
	}

	env.applications.On("GetApplication", mock.Anything, applicationID).Return(application, nil)
	env.applications.On("MarkRefereeContacted", mock.Anything, applicationID).Return(nil).Once()
	env.referees.On("GetReferee", mock.Anything, refereeID).Return(referee, nil)
	env.email.On(
		"SendInvitation", mock.Anything, referee.Email, referee.Name,
		mock.AnythingOfType("string"), application.JobTitle, application.CompanyName,
	).Return(nil).Once()

	body, err := json.Marshal(apis.CreateChatRequest{
		ApplicationID: applicationID, RefereeID: refereeID,
	})
	assert.Nil(err)

	// No credential
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(
		http.MethodPost, "/v1/chats", bytes.NewReader(body),
	))
	assert.Equal(http.StatusUnauthorized, rec.Code)

	// Foreign recruiter
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, asRecruiter(httptest.NewRequest(
		http.MethodPost, "/v1/chats", bytes.NewReader(body),
	), uuid.NewString()))
	assert.Equal(http.StatusForbidden, rec.Code)

	// Create a real chat to probe against
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, asRecruiter(httptest.NewRequest(
		http.MethodPost, "/v1/chats", bytes.NewReader(body),
	), recruiterID))
	assert.Equal(http.StatusCreated, rec.Code)
	var created chat.CreateResult
	assert.Nil(json.NewDecoder(rec.Body).Decode(&created))

	// A bad token on a real chat and a good-looking request on a missing
	// chat produce indistinguishable responses
	badToken := fmt.Sprintf("%064x", 3735928559)
	recBadToken := httptest.NewRecorder()
	env.router.ServeHTTP(recBadToken, httptest.NewRequest(
		http.MethodGet, fmt.Sprintf("/v1/chats/%s?token=%s", created.Chat.ID, badToken), nil,
	))
	recMissingChat := httptest.NewRecorder()
	env.router.ServeHTTP(recMissingChat, httptest.NewRequest(
		http.MethodGet, fmt.Sprintf("/v1/chats/%s?token=%s", uuid.NewString(), badToken), nil,
	))
	assert.Equal(http.StatusNotFound, recBadToken.Code)
	assert.Equal(http.StatusNotFound, recMissingChat.Code)
	assert.Equal(recMissingChat.Body.String(), recBadToken.Body.String())

	// Malformed message payload
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, asRecruiter(httptest.NewRequest(
		http.MethodPost,
		fmt.Sprintf("/v1/chats/%s/messages", created.Chat.ID),
		bytes.NewReader([]byte("{not json")),
	), recruiterID))
	assert.Equal(http.StatusBadRequest, rec.Code)

	// Blank message content
	blank, err := json.Marshal(apis.SendMessageRequest{Content: "   "})
	assert.Nil(err)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, asRecruiter(httptest.NewRequest(
		http.MethodPost,
		fmt.Sprintf("/v1/chats/%s/messages", created.Chat.ID),
		bytes.NewReader(blank),
	), recruiterID))
	assert.Equal(http.StatusBadRequest, rec.Code)
}
