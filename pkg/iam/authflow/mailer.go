package authflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Abraxas-365/keygate/pkg/errx"
	"github.com/Abraxas-365/keygate/pkg/jobx"
	"github.com/Abraxas-365/keygate/pkg/logx"
	"github.com/Abraxas-365/keygate/pkg/notifx"
)

// Email templates used by the authentication flows.
const (
	TemplateConfirmEmail  = "auth_confirm_email"
	TemplateMagicLink     = "auth_magic_link"
	TemplateResetPassword = "auth_reset_password"
	TemplateInvite        = "auth_invite"
	TemplateWelcome       = "auth_welcome"
)

// EmailSendJobType is the jobx job type for asynchronous email delivery.
const EmailSendJobType = "email:send"

// Mailer delivers flow emails. Send is synchronous; SendDelayed schedules
// delivery through the job queue.
type Mailer interface {
	Send(ctx context.Context, template, to string, data map[string]interface{}) error
	SendDelayed(ctx context.Context, template, to string, data map[string]interface{}, delay time.Duration) error
}

var templateSubjects = map[string]string{
	TemplateConfirmEmail:  "Confirm your email address",
	TemplateMagicLink:     "Your sign-in link",
	TemplateResetPassword: "Reset your password",
	TemplateInvite:        "You have been invited",
	TemplateWelcome:       "Welcome aboard",
}

var templateBodies = map[string]string{
	TemplateConfirmEmail:  `<p>Hi {{.Name}},</p><p>Confirm your email by opening <a href="{{.Link}}">this link</a>. The link expires in {{.TTL}}.</p>`,
	TemplateMagicLink:     `<p>Hi {{.Name}},</p><p>Sign in with <a href="{{.Link}}">this link</a>. It can be used once and expires in {{.TTL}}.</p>`,
	TemplateResetPassword: `<p>Hi {{.Name}},</p><p>Reset your password with <a href="{{.Link}}">this link</a>. It expires in {{.TTL}}.</p><p>If you did not request this, ignore this email.</p>`,
	TemplateInvite:        `<p>Hi {{.Name}},</p><p>{{.TenantName}} invited you. Accept with <a href="{{.Link}}">this link</a>. It expires in {{.TTL}}.</p>`,
	TemplateWelcome:       `<p>Hi {{.Name}},</p><p>Welcome to {{.TenantName}}. You are all set.</p>`,
}

// NotifxMailer sends through notifx, and defers through jobx when a delay
// is requested.
type NotifxMailer struct {
	client *notifx.Client
	jobs   jobx.JobEnqueuer
	from   string
}

// NewNotifxMailer creates a mailer and registers the flow templates.
func NewNotifxMailer(client *notifx.Client, jobs jobx.JobEnqueuer, from string) (*NotifxMailer, error) {
	for name, body := range templateBodies {
		if err := client.RegisterTemplate(name, body); err != nil {
			return nil, errx.Wrapf(err, errx.TypeInternal, "failed to register email template %s", name)
		}
	}
	return &NotifxMailer{client: client, jobs: jobs, from: from}, nil
}

// Send renders the template and delivers the email now.
func (m *NotifxMailer) Send(ctx context.Context, template, to string, data map[string]interface{}) error {
	subject, ok := templateSubjects[template]
	if !ok {
		return errx.New(fmt.Sprintf("unknown email template %s", template), errx.TypeInternal)
	}

	msg := notifx.EmailMessage{
		From:    m.from,
		To:      []string{to},
		Subject: subject,
	}
	return m.client.SendTemplatedEmail(ctx, template, data, msg)
}

type emailJobPayload struct {
	Template string                 `json:"template"`
	To       string                 `json:"to"`
	Data     map[string]interface{} `json:"data"`
}

// SendDelayed schedules the email through the job queue.
func (m *NotifxMailer) SendDelayed(ctx context.Context, template, to string, data map[string]interface{}, delay time.Duration) error {
	payload, err := json.Marshal(emailJobPayload{Template: template, To: to, Data: data})
	if err != nil {
		return errx.Wrap(err, "failed to marshal email job payload", errx.TypeInternal)
	}

	_, err = m.jobs.EnqueueDelayed(ctx, jobx.Job{
		Type:    EmailSendJobType,
		Payload: payload,
	}, delay)
	if err != nil {
		return errx.Wrap(err, "failed to enqueue email job", errx.TypeInternal)
	}
	return nil
}

// RegisterEmailJobHandler wires the email:send job type to the mailer so
// queued emails go out through the same provider as synchronous ones.
func RegisterEmailJobHandler(jobs *jobx.Client, mailer Mailer) {
	jobs.Register(EmailSendJobType, func(ctx context.Context, job *jobx.JobInfo) error {
		var payload emailJobPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return errx.Wrap(err, "failed to unmarshal email job payload", errx.TypeInternal)
		}

		if err := mailer.Send(ctx, payload.Template, payload.To, payload.Data); err != nil {
			return err
		}
		logx.WithFields(logx.Fields{"template": payload.Template}).Debug("queued email delivered")
		return nil
	})
}
