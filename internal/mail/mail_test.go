package mail

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/sendgrid/rest"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/estatehub-backend/pkg/config"
	"github.com/angelmondragon/estatehub-backend/pkg/logger"
)

func TestRenderVerificationCode(t *testing.T) {
	r := NewRenderer("EstateHub")
	out, err := r.Render(Message{Kind: KindVerificationCode, To: "a@b.c", Name: "Amal", Data: map[string]string{"code": "123456"}})
	require.NoError(t, err)

	assert.Equal(t, "Verify Your Email Address", out.Subject)
	assert.Contains(t, out.Text, "123456")
	assert.Contains(t, out.HTML, "123456")
	assert.Contains(t, out.HTML, "Hello Amal!")
	assert.NotContains(t, out.HTML, "\n    ", "html is minified")
}

func TestRenderEscapesData(t *testing.T) {
	r := NewRenderer("")
	out, err := r.Render(Message{Kind: KindSavedSearchMatch, To: "a@b.c", Data: map[string]string{
		"search": "<script>alert(1)</script>",
		"title":  "Villa",
		"city":   "Rabat",
		"price":  "100",
		"link":   "http://localhost:3000/properties/1",
	}})
	require.NoError(t, err)
	assert.NotContains(t, out.HTML, "<script>")
	assert.Contains(t, out.HTML, "Real Estate App")
}

func TestRenderRejectsInvalidMessage(t *testing.T) {
	r := NewRenderer("")
	_, err := r.Render(Message{Kind: KindWelcome})
	assert.Error(t, err)
	_, err = r.Render(Message{Kind: "unknown", To: "a@b.c"})
	assert.Error(t, err)
}

type stubClient struct {
	sent   *sgmail.SGMailV3
	status int
	err    error
}

func (s *stubClient) SendWithContext(ctx context.Context, email *sgmail.SGMailV3) (*rest.Response, error) {
	s.sent = email
	if s.err != nil {
		return nil, s.err
	}
	return &rest.Response{StatusCode: s.status, Body: "body"}, nil
}

func TestSendgridSender(t *testing.T) {
	client := &stubClient{status: 202}
	sender := &SendgridSender{
		client:   client,
		from:     sgmail.NewEmail("EstateHub", "no-reply@estatehub.local"),
		renderer: NewRenderer(""),
		logg:     logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	}

	require.NoError(t, sender.Send(context.Background(), Message{Kind: KindWelcome, To: "user@example.com", Name: "User"}))
	require.NotNil(t, client.sent)
	assert.Equal(t, "Welcome to Real Estate App!", client.sent.Subject)
	require.Len(t, client.sent.Personalizations, 1)
	assert.Equal(t, "user@example.com", client.sent.Personalizations[0].To[0].Address)

	client.status = 401
	err := sender.Send(context.Background(), Message{Kind: KindWelcome, To: "user@example.com"})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "401"))

	client.err = errors.New("network down")
	assert.Error(t, sender.Send(context.Background(), Message{Kind: KindWelcome, To: "user@example.com"}))
}

func TestNewSenderFallsBackToLog(t *testing.T) {
	sender, err := NewSender(sgConfig(""), "", nil)
	require.NoError(t, err)
	_, ok := sender.(*LogSender)
	assert.True(t, ok)
	assert.NoError(t, sender.Send(context.Background(), Message{Kind: KindWelcome, To: "x@y.z"}))
}

func sgConfig(key string) config.SendgridConfig {
	return config.SendgridConfig{APIKey: key, DefaultFrom: "no-reply@estatehub.local"}
}
