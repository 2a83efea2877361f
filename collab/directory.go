package collab

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alwitt/goutils"
	"github.com/apex/log"
	"github.com/go-playground/validator/v10"
)

// PlatformDirectory combined read access to the platform's application and
// referee records
type PlatformDirectory interface {
	ApplicationDirectory
	RefereeDirectory
}

// DirectoryClientParams platform directory client parameters
type DirectoryClientParams struct {
	// BaseURL base URL of the platform's internal directory API
	BaseURL string `validate:"required,url"`
	// RequestTimeout per-request timeout; defaults to 10s
	RequestTimeout time.Duration `validate:"-"`
}

// directoryClient implements PlatformDirectory against the platform's
// internal REST API
type directoryClient struct {
	goutils.Component

	baseURL string
	client  *http.Client
}

/*
NewDirectoryClient define new platform directory client

	@param ctx context.Context - execution context
	@param params DirectoryClientParams - client parameters
	@returns client instance
*/
func NewDirectoryClient(
	_ context.Context, params DirectoryClientParams,
) (PlatformDirectory, error) {
	logTags := log.Fields{"package": "refchat", "module": "collab", "component": "directory-client"}

	validate := validator.New()
	if err := validate.Struct(&params); err != nil {
		return nil, fmt.Errorf("invalid directory client parameters [%w]", err)
	}
	if params.RequestTimeout <= 0 {
		params.RequestTimeout = time.Second * 10
	}

	instance := &directoryClient{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		baseURL: strings.TrimRight(params.BaseURL, "/"),
		client:  &http.Client{Timeout: params.RequestTimeout},
	}

	return instance, nil
}

// getJSON fetch one directory record, decoding the response into target.
// A 404 comes back as ErrNotFound.
func (c *directoryClient) getJSON(ctx context.Context, path string, target interface{}) error {
	request, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.baseURL+path, nil,
	)
	if err != nil {
		return fmt.Errorf("failed to build directory request %s [%w]", path, err)
	}

	response, err := c.client.Do(request)
	if err != nil {
		return fmt.Errorf("directory request %s failed [%w]", path, err)
	}
	defer func() {
		if err := response.Body.Close(); err != nil {
			log.WithError(err).
				WithFields(c.GetLogTagsForContext(ctx)).
				Warn("Failed to close directory response body")
		}
	}()

	switch {
	case response.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case response.StatusCode != http.StatusOK:
		return fmt.Errorf("directory request %s returned %d", path, response.StatusCode)
	}

	if err := json.NewDecoder(response.Body).Decode(target); err != nil {
		return fmt.Errorf("failed to parse directory response of %s [%w]", path, err)
	}
	return nil
}

/*
GetApplication fetch the summary of one application

	@param ctx context.Context - execution context
	@param applicationID string - application ID
	@returns the application summary, or ErrNotFound
*/
func (c *directoryClient) GetApplication(
	ctx context.Context, applicationID string,
) (ApplicationSummary, error) {
	var summary ApplicationSummary
	if err := c.getJSON(
		ctx, fmt.Sprintf("/internal/v1/applications/%s", applicationID), &summary,
	); err != nil {
		return ApplicationSummary{}, err
	}
	return summary, nil
}

/*
GetRecruiter fetch the profile of one recruiter

	@param ctx context.Context - execution context
	@param recruiterID string - recruiter user ID
	@returns the recruiter profile, or ErrNotFound
*/
func (c *directoryClient) GetRecruiter(
	ctx context.Context, recruiterID string,
) (RecruiterProfile, error) {
	var profile RecruiterProfile
	if err := c.getJSON(
		ctx, fmt.Sprintf("/internal/v1/recruiters/%s", recruiterID), &profile,
	); err != nil {
		return RecruiterProfile{}, err
	}
	return profile, nil
}

/*
GetReferee fetch the profile of one referee

	@param ctx context.Context - execution context
	@param refereeID string - referee record ID
	@returns the referee profile, or ErrNotFound
*/
func (c *directoryClient) GetReferee(
	ctx context.Context, refereeID string,
) (RefereeProfile, error) {
	var profile RefereeProfile
	if err := c.getJSON(
		ctx, fmt.Sprintf("/internal/v1/referees/%s", refereeID), &profile,
	); err != nil {
		return RefereeProfile{}, err
	}
	return profile, nil
}

/*
MarkRefereeContacted advance an application from UNDER_REVIEW to
REFEREE_CONTACTED

	@param ctx context.Context - execution context
	@param applicationID string - application ID
*/
func (c *directoryClient) MarkRefereeContacted(
	ctx context.Context, applicationID string,
) error {
	path := fmt.Sprintf("/internal/v1/applications/%s/referee-contacted", applicationID)
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build directory request %s [%w]", path, err)
	}

	response, err := c.client.Do(request)
	if err != nil {
		return fmt.Errorf("directory request %s failed [%w]", path, err)
	}
	defer func() {
		_ = response.Body.Close()
	}()

	switch response.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return fmt.Errorf("directory request %s returned %d", path, response.StatusCode)
	}
}
