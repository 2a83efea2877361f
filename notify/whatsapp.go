package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alwitt/goutils"
	"github.com/apex/log"
)

// twilioMessageEndpoint Twilio REST API message creation endpoint pattern
const twilioMessageEndpoint = "https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json"

// WhatsAppDispatcherParams WhatsApp dispatcher init parameters
type WhatsAppDispatcherParams struct {
	// AccountSID Twilio account SID. Empty disables sending.
	AccountSID string
	// AuthToken Twilio auth token
	AuthToken string
	// FromNumber sending number, in "whatsapp:+1..." form
	FromNumber string
}

// whatsAppDispatcher implements Dispatcher over the Twilio WhatsApp API
type whatsAppDispatcher struct {
	goutils.Component

	params WhatsAppDispatcherParams
	client *http.Client
}

/*
NewWhatsAppDispatcher define new Twilio WhatsApp dispatcher

	@param ctx context.Context - execution context
	@param params WhatsAppDispatcherParams - dispatcher parameters
	@returns dispatcher instance
*/
func NewWhatsAppDispatcher(
	_ context.Context, params WhatsAppDispatcherParams,
) (Dispatcher, error) {
	logTags := log.Fields{"package": "refchat", "module": "notify", "component": "whatsapp-dispatcher"}

	if params.FromNumber != "" && !strings.HasPrefix(params.FromNumber, "whatsapp:") {
		params.FromNumber = "whatsapp:" + params.FromNumber
	}

	instance := &whatsAppDispatcher{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		params: params,
		client: &http.Client{Timeout: time.Second * 15},
	}

	return instance, nil
}

/*
SendInvitation notify a referee they have been invited to a chat

	@param ctx context.Context - execution context
	@param address string - recipient phone number
	@param name string - recipient display name
	@param chatURL string - access URL embedding the referee's token
	@param jobTitle string - job the reference is for
	@param companyName string - hiring company
*/
func (d *whatsAppDispatcher) SendInvitation(
	ctx context.Context,
	address string,
	name string,
	chatURL string,
	jobTitle string,
	companyName string,
) error {
	body := fmt.Sprintf(
		"Hello %s, a recruiter from %s has requested to contact you as a reference "+
			"for the position of %s. Use this secure link to chat, no account needed: %s "+
			"Please do not share this link.",
		name, companyName, jobTitle, chatURL,
	)
	return d.send(ctx, address, body)
}

/*
SendNewMessageAlert notify a chat party of a new message

	@param ctx context.Context - execution context
	@param address string - recipient phone number
	@param name string - recipient display name
	@param chatURL string - link back into the chat
*/
func (d *whatsAppDispatcher) SendNewMessageAlert(
	ctx context.Context, address string, name string, chatURL string,
) error {
	body := fmt.Sprintf(
		"Hello %s, you have a new message in your chat. View it here: %s", name, chatURL,
	)
	return d.send(ctx, address, body)
}

// send POST one message to the Twilio REST API
func (d *whatsAppDispatcher) send(ctx context.Context, to string, body string) error {
	if d.params.AccountSID == "" {
		log.WithFields(d.GetLogTagsForContext(ctx)).
			WithField("to", to).
			Warn("WhatsApp transport not configured. Message not sent.")
		return nil
	}

	if !strings.HasPrefix(to, "whatsapp:") {
		to = "whatsapp:" + to
	}

	form := url.Values{}
	form.Set("From", d.params.FromNumber)
	form.Set("To", to)
	form.Set("Body", body)

	endpoint := fmt.Sprintf(twilioMessageEndpoint, d.params.AccountSID)
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()),
	)
	if err != nil {
		return fmt.Errorf("failed to build Twilio API request [%w]", err)
	}
	req.SetBasicAuth(d.params.AccountSID, d.params.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("Twilio API call failed [%w]", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("Twilio API rejected message with status %d", resp.StatusCode)
	}

	return nil
}
