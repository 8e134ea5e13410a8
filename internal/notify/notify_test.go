package notify_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/BradenHooton/authgate/internal/models"
	"github.com/BradenHooton/authgate/internal/notify"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, params *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSESNotifier_SendEmail(t *testing.T) {
	client := &fakeSES{}
	notifier := notify.NewSESNotifierWithClient(client, "no-reply@example.com", slog.New(slog.NewTextHandler(io.Discard, nil)))

	err := notifier.SendEmail(context.Background(), models.MustParseEmail("alice@example.com"), "Your 2FA code", "123456")
	require.NoError(t, err)

	require.NotNil(t, client.input)
	assert.Equal(t, "no-reply@example.com", aws.ToString(client.input.Source))
	assert.Equal(t, []string{"alice@example.com"}, client.input.Destination.ToAddresses)
	assert.Equal(t, "Your 2FA code", aws.ToString(client.input.Message.Subject.Data))
	assert.Equal(t, "123456", aws.ToString(client.input.Message.Body.Text.Data))
}

func TestSESNotifier_SendEmailFailure(t *testing.T) {
	client := &fakeSES{err: errors.New("throttled")}
	var logs bytes.Buffer
	notifier := notify.NewSESNotifierWithClient(client, "no-reply@example.com", slog.New(slog.NewJSONHandler(&logs, nil)))

	err := notifier.SendEmail(context.Background(), models.MustParseEmail("alice@example.com"), "Your 2FA code", "123456")
	assert.Error(t, err)
	assert.NotContains(t, logs.String(), "alice@example.com")
}

func TestLogNotifier_SendEmail(t *testing.T) {
	var logs bytes.Buffer
	notifier := notify.NewLogNotifier(slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})))

	err := notifier.SendEmail(context.Background(), models.MustParseEmail("alice@example.com"), "Your 2FA code", "123456")
	require.NoError(t, err)

	assert.Contains(t, logs.String(), "123456")
	assert.NotContains(t, logs.String(), "alice@example.com")
}
