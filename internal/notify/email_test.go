package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSendGridSender_NilWithoutAPIKey(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{
		APIKey:    "",
		FromEmail: "no-reply@t5fueling.com",
	}, nil)

	if sender != nil {
		t.Error("expected nil sender when API key is empty")
	}
}

func TestNewSendGridSender_DefaultFromName(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{
		APIKey:    "test-key",
		FromEmail: "no-reply@t5fueling.com",
	}, nil)

	if sender == nil {
		t.Fatal("expected non-nil sender")
	}
	if sender.fromName != "Texas Five Fueling" {
		t.Errorf("expected default from name, got %q", sender.fromName)
	}
}

func TestSendGridSender_Send_NilClient(t *testing.T) {
	sender := &SendGridSender{client: nil}

	err := sender.Send(context.Background(), EmailMessage{
		To:      "info@t5fueling.com",
		Subject: "Test",
		Body:    "Test body",
	})

	if err == nil {
		t.Fatal("expected error when client is nil")
	}
	if IsRetriable(err) {
		t.Error("missing client should not be retried")
	}
}

func newSendGridServer(t *testing.T, status int, captured *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if captured != nil {
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, captured)
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSendGridSender_SendIncludesReplyTo(t *testing.T) {
	var payload map[string]any
	srv := newSendGridServer(t, http.StatusAccepted, &payload)
	sender := NewSendGridSender(SendGridConfig{APIKey: "test-key", FromEmail: "no-reply@t5fueling.com", BaseURL: srv.URL}, nil)

	err := sender.Send(context.Background(), EmailMessage{
		To:      "info@t5fueling.com",
		ReplyTo: "jane@doe.co",
		Subject: LeadSubject,
		Body:    "text",
		HTML:    "<p>html</p>",
	})
	require.NoError(t, err)

	replyTo, ok := payload["reply_to"].(map[string]any)
	require.True(t, ok, "expected reply_to in payload: %v", payload)
	assert.Equal(t, "jane@doe.co", replyTo["email"])
	assert.Equal(t, LeadSubject, payload["subject"])
}

func TestSendGridSender_StatusClassification(t *testing.T) {
	tests := []struct {
		status    int
		retriable bool
	}{
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
		{http.StatusForbidden, false},
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusServiceUnavailable, true},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := newSendGridServer(t, tt.status, nil)
			sender := NewSendGridSender(SendGridConfig{APIKey: "test-key", FromEmail: "no-reply@t5fueling.com", BaseURL: srv.URL}, nil)

			err := sender.Send(context.Background(), EmailMessage{To: "info@t5fueling.com", Subject: "s", Body: "b"})

			var statusErr *SendGridStatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, tt.status, statusErr.StatusCode)
			assert.Equal(t, tt.retriable, IsRetriable(err))
		})
	}
}

func TestStubEmailSender_Send(t *testing.T) {
	sender := NewStubEmailSender(nil)

	err := sender.Send(context.Background(), EmailMessage{
		To:      "info@t5fueling.com",
		Subject: "Test Subject",
		Body:    "Test body",
	})

	if err != nil {
		t.Errorf("stub sender should not return error, got: %v", err)
	}
}

type fakeSES struct {
	sendInput *sesv2.SendEmailInput
	sendErr   error
	quota     *types.SendQuota
	quotaErr  error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.sendInput = in
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	id := "0100018f-test"
	return &sesv2.SendEmailOutput{MessageId: &id}, nil
}

func (f *fakeSES) GetAccount(context.Context, *sesv2.GetAccountInput, ...func(*sesv2.Options)) (*sesv2.GetAccountOutput, error) {
	if f.quotaErr != nil {
		return nil, f.quotaErr
	}
	return &sesv2.GetAccountOutput{SendQuota: f.quota}, nil
}

func TestSESSender_Send(t *testing.T) {
	fake := &fakeSES{}
	sender := newSESSender(fake, SESConfig{FromEmail: "no-reply@t5fueling.com"}, nil)

	err := sender.Send(context.Background(), EmailMessage{
		To:      "info@t5fueling.com",
		ReplyTo: "jane@doe.co",
		Subject: LeadSubject,
		Body:    "text body",
		HTML:    "<p>html body</p>",
	})
	require.NoError(t, err)

	in := fake.sendInput
	require.NotNil(t, in)
	assert.Equal(t, "Texas Five Fueling <no-reply@t5fueling.com>", *in.FromEmailAddress)
	assert.Equal(t, []string{"info@t5fueling.com"}, in.Destination.ToAddresses)
	assert.Equal(t, []string{"jane@doe.co"}, in.ReplyToAddresses)
	assert.Equal(t, LeadSubject, *in.Content.Simple.Subject.Data)
	assert.Equal(t, "text body", *in.Content.Simple.Body.Text.Data)
	assert.Equal(t, "<p>html body</p>", *in.Content.Simple.Body.Html.Data)
}

func TestSESSender_SendErrorKeepsAPIError(t *testing.T) {
	fake := &fakeSES{sendErr: &smithy.GenericAPIError{Code: "MessageRejected", Message: "Email address is not verified."}}
	sender := newSESSender(fake, SESConfig{FromEmail: "no-reply@t5fueling.com"}, nil)

	err := sender.Send(context.Background(), EmailMessage{To: "info@t5fueling.com", Subject: "s", Body: "b"})

	var apiErr smithy.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "MessageRejected", apiErr.ErrorCode())
	assert.False(t, IsRetriable(err))
}

func TestSESSender_Quota(t *testing.T) {
	fake := &fakeSES{quota: &types.SendQuota{Max24HourSend: 50000, SentLast24Hours: 12, MaxSendRate: 14}}
	sender := newSESSender(fake, SESConfig{FromEmail: "no-reply@t5fueling.com"}, nil)

	quota, err := sender.Quota(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SendQuota{Max24HourSend: 50000, SentLast24Hours: 12, MaxSendRate: 14}, quota)

	fake.quotaErr = errors.New("AccessDenied")
	_, err = sender.Quota(context.Background())
	assert.Error(t, err)
}

func TestNewSESSender_NilClient(t *testing.T) {
	assert.Nil(t, NewSESSender(nil, SESConfig{}, nil))
}

func TestSMTPSender_BuildMessage(t *testing.T) {
	sender := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", FromEmail: "no-reply@t5fueling.com"}, nil)
	require.NotNil(t, sender)
	assert.Equal(t, 587, sender.cfg.Port)

	m, err := sender.buildMessage(EmailMessage{
		To:      "info@t5fueling.com",
		ReplyTo: "jane@doe.co",
		Subject: LeadSubject,
		Body:    "text",
		HTML:    "<p>html</p>",
	})
	require.NoError(t, err)

	to := m.GetToString()
	require.Len(t, to, 1)
	assert.Equal(t, "<info@t5fueling.com>", to[0])
}

func TestSMTPSender_InvalidRecipientIsPermanent(t *testing.T) {
	sender := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", FromEmail: "no-reply@t5fueling.com"}, nil)

	err := sender.Send(context.Background(), EmailMessage{To: "not an address", Subject: "s", Body: "b"})

	require.Error(t, err)
	assert.False(t, IsRetriable(err))
}

func TestNewSMTPSender_NilWithoutHost(t *testing.T) {
	assert.Nil(t, NewSMTPSender(SMTPConfig{}, nil))
}
