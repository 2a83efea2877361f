package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/alwitt/goutils"
	"github.com/apex/log"
)

const invitationEmailTemplate = `
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #4a5fc1; color: white; padding: 30px; text-align: center; border-radius: 10px 10px 0 0; }
        .content { background: #f9f9f9; padding: 30px; border-radius: 0 0 10px 10px; }
        .button { display: inline-block; background: #4a5fc1; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px; margin: 20px 0; }
        .footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Reference Request</h1>
        </div>
        <div class="content">
            <p>Hello {{.Name}},</p>
            <p>A recruiter from <strong>{{.CompanyName}}</strong> has requested to contact you as a reference for a candidate who applied for the position of <strong>{{.JobTitle}}</strong>.</p>
            <p>You can securely communicate with the recruiter through our encrypted chat system. No account creation is required.</p>
            <p style="text-align: center;">
                <a href="{{.ChatURL}}" class="button">Access Secure Chat</a>
            </p>
            <p><strong>Important:</strong> This link is unique and secure. Do not share it with anyone else.</p>
            <p>If you did not expect this email or believe it was sent in error, please disregard it.</p>
        </div>
        <div class="footer">
            <p>This is an automated message from the Recruitment Verification Platform.</p>
        </div>
    </div>
</body>
</html>
`

const newMessageEmailTemplate = `
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #4a5fc1; color: white; padding: 30px; text-align: center; border-radius: 10px 10px 0 0; }
        .content { background: #f9f9f9; padding: 30px; border-radius: 0 0 10px 10px; }
        .button { display: inline-block; background: #4a5fc1; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px; margin: 20px 0; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>New Message</h1>
        </div>
        <div class="content">
            <p>Hello {{.Name}},</p>
            <p>You have received a new message in your chat.</p>
            <p style="text-align: center;">
                <a href="{{.ChatURL}}" class="button">View Message</a>
            </p>
        </div>
    </div>
</body>
</html>
`

// EmailDispatcherParams email dispatcher init parameters
type EmailDispatcherParams struct {
	// Host SMTP server host. Empty disables sending; dispatch calls then log
	// and return nil so a missing mail setup never breaks chat operations.
	Host string
	// Port SMTP server port
	Port int
	// Username SMTP auth username
	Username string
	// Password SMTP auth password
	Password string
	// From sender address
	From string
}

// emailDispatcher implements Dispatcher over SMTP
type emailDispatcher struct {
	goutils.Component

	params EmailDispatcherParams

	invitationTmpl *template.Template
	newMessageTmpl *template.Template
}

/*
NewEmailDispatcher define new SMTP email dispatcher

	@param ctx context.Context - execution context
	@param params EmailDispatcherParams - dispatcher parameters
	@returns dispatcher instance
*/
func NewEmailDispatcher(
	_ context.Context, params EmailDispatcherParams,
) (Dispatcher, error) {
	logTags := log.Fields{"package": "refchat", "module": "notify", "component": "email-dispatcher"}

	invitationTmpl, err := template.New("invitation").Parse(invitationEmailTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse invitation email template [%w]", err)
	}

	newMessageTmpl, err := template.New("new-message").Parse(newMessageEmailTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse new message email template [%w]", err)
	}

	instance := &emailDispatcher{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		params:         params,
		invitationTmpl: invitationTmpl,
		newMessageTmpl: newMessageTmpl,
	}

	return instance, nil
}

/*
SendInvitation notify a referee they have been invited to a chat

	@param ctx context.Context - execution context
	@param address string - recipient email address
	@param name string - recipient display name
	@param chatURL string - access URL embedding the referee's token
	@param jobTitle string - job the reference is for
	@param companyName string - hiring company
*/
func (d *emailDispatcher) SendInvitation(
	ctx context.Context,
	address string,
	name string,
	chatURL string,
	jobTitle string,
	companyName string,
) error {
	var body bytes.Buffer
	if err := d.invitationTmpl.Execute(&body, map[string]string{
		"Name":        name,
		"ChatURL":     chatURL,
		"JobTitle":    jobTitle,
		"CompanyName": companyName,
	}); err != nil {
		return fmt.Errorf("failed to render invitation email [%w]", err)
	}

	subject := fmt.Sprintf("Reference Request for %s at %s", jobTitle, companyName)
	return d.send(ctx, address, subject, body.String())
}

/*
SendNewMessageAlert notify a chat party of a new message

	@param ctx context.Context - execution context
	@param address string - recipient email address
	@param name string - recipient display name
	@param chatURL string - link back into the chat
*/
func (d *emailDispatcher) SendNewMessageAlert(
	ctx context.Context, address string, name string, chatURL string,
) error {
	var body bytes.Buffer
	if err := d.newMessageTmpl.Execute(&body, map[string]string{
		"Name":    name,
		"ChatURL": chatURL,
	}); err != nil {
		return fmt.Errorf("failed to render new message email [%w]", err)
	}

	return d.send(ctx, address, "New Message in Your Chat", body.String())
}

// send assemble the MIME message and hand it to the SMTP server
func (d *emailDispatcher) send(ctx context.Context, to string, subject string, htmlBody string) error {
	if d.params.Host == "" {
		log.WithFields(d.GetLogTagsForContext(ctx)).
			WithField("to", to).
			WithField("subject", subject).
			Warn("Email transport not configured. Email not sent.")
		return nil
	}

	headers := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n",
		d.params.From, to, subject,
	)
	message := headers + "\r\n" + htmlBody

	auth := smtp.PlainAuth("", d.params.Username, d.params.Password, d.params.Host)
	addr := fmt.Sprintf("%s:%d", d.params.Host, d.params.Port)

	if err := smtp.SendMail(addr, auth, d.params.From, []string{to}, []byte(message)); err != nil {
		return fmt.Errorf("failed to send email to '%s' [%w]", to, err)
	}

	return nil
}
