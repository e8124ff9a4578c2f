package notify

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/t5fueling/t5fueling-web/internal/leads"
	"github.com/t5fueling/t5fueling-web/pkg/logging"
)

//go:embed templates/*
var templateFS embed.FS

var (
	leadHTMLTemplate = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/lead_notification.html"))
	leadTextTemplate = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/lead_notification.txt"))
)

var notifyTracer = otel.Tracer("t5fueling.internal.notify")

// LeadSubject is the subject line of every staff notification.
const LeadSubject = "New Quote Request from Texas Five Fueling Website"

const (
	defaultRecipient = "info@t5fueling.com"
	submittedLayout  = "January 2, 2006 at 3:04 PM MST"
)

// attemptCounter is implemented by senders that retry internally.
type attemptCounter interface {
	SendWithAttempts(ctx context.Context, msg EmailMessage) (int, error)
}

// LeadNotifier emails staff about new quote requests. It implements
// leads.Notifier.
type LeadNotifier struct {
	email     EmailSender
	provider  string
	recipient string
	location  *time.Location
	logger    *logging.Logger
}

// LeadNotifierConfig holds the recipient and rendering settings.
type LeadNotifierConfig struct {
	Provider  string
	Recipient string
	// Location is the zone submission times are shown in. Nil means UTC.
	Location *time.Location
}

// NewLeadNotifier creates a notifier that sends through email. Wrap email
// in a RetryingSender to get retries and attempt counts.
func NewLeadNotifier(email EmailSender, cfg LeadNotifierConfig, logger *logging.Logger) *LeadNotifier {
	if email == nil {
		panic("notify: email sender required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Recipient == "" {
		cfg.Recipient = defaultRecipient
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &LeadNotifier{
		email:     email,
		provider:  cfg.Provider,
		recipient: cfg.Recipient,
		location:  cfg.Location,
		logger:    logger,
	}
}

var _ leads.Notifier = (*LeadNotifier)(nil)

// NotifyNewSubmission renders and sends the staff email for sub. Replies go
// to the submitter.
func (n *LeadNotifier) NotifyNewSubmission(ctx context.Context, sub *leads.Submission) leads.NotificationResult {
	ctx, span := notifyTracer.Start(ctx, "notify.new_submission")
	defer span.End()
	span.SetAttributes(
		attribute.String("t5.lead_id", sub.ID),
		attribute.String("t5.email_provider", n.provider),
	)

	result := leads.NotificationResult{Provider: n.provider}

	msg, err := n.Render(sub)
	if err != nil {
		result.Err = err
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return result
	}

	if counter, ok := n.email.(attemptCounter); ok {
		result.Attempts, result.Err = counter.SendWithAttempts(ctx, msg)
	} else {
		result.Attempts, result.Err = 1, n.email.Send(ctx, msg)
	}

	span.SetAttributes(attribute.Int("t5.attempts", result.Attempts))
	if result.Err != nil {
		span.RecordError(result.Err)
		span.SetStatus(codes.Error, result.Err.Error())
	}
	return result
}

type leadEmailData struct {
	ID           string
	Name         string
	CompanyName  string
	Email        string
	Phone        string
	PhoneLink    htmltemplate.URL
	ServiceLabel string
	Location     string
	Message      string
	Submitted    string
}

// Render builds the email for sub without sending it.
func (n *LeadNotifier) Render(sub *leads.Submission) (EmailMessage, error) {
	data := leadEmailData{
		ID:           sub.ID,
		Name:         sub.Name,
		CompanyName:  sub.CompanyName,
		Email:        sub.Email,
		Phone:        sub.Phone,
		ServiceLabel: leads.ServiceLabel(sub.ServiceType),
		Location:     sub.Location,
		Message:      sub.Message,
		Submitted:    sub.SubmittedAt.In(n.location).Format(submittedLayout),
	}
	if e164, ok := leads.PhoneE164(sub.Phone); ok {
		data.PhoneLink = htmltemplate.URL("tel:" + e164)
	}

	var html bytes.Buffer
	if err := leadHTMLTemplate.Execute(&html, data); err != nil {
		return EmailMessage{}, fmt.Errorf("notify: render html: %w", err)
	}
	var text bytes.Buffer
	if err := leadTextTemplate.Execute(&text, data); err != nil {
		return EmailMessage{}, fmt.Errorf("notify: render text: %w", err)
	}

	return EmailMessage{
		To:      n.recipient,
		ReplyTo: sub.Email,
		Subject: LeadSubject,
		Body:    text.String(),
		HTML:    html.String(),
	}, nil
}
