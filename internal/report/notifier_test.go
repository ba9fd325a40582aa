// internal/report/notifier_test.go
package report

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chunk-auditor/internal/common/config"
)

// ==========================
// Mock Implementations
// ==========================

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput) (*sns.PublishOutput, error)
	Calls       int
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput) (*sns.PublishOutput, error) {
	m.Calls++
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, params)
	}
	return &sns.PublishOutput{}, nil
}

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput) (*ses.SendEmailOutput, error)
	Calls         int
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
	m.Calls++
	if m.SendEmailFunc != nil {
		return m.SendEmailFunc(ctx, params)
	}
	return &ses.SendEmailOutput{}, nil
}

// ==========================
// Test Helper Functions
// ==========================

func notificationConfig() config.NotificationConfig {
	cfg := config.NotificationConfig{Enabled: true}
	cfg.AWS.Region = "us-east-1"
	cfg.SNS.Enabled = true
	cfg.SNS.TopicARN = "arn:aws:sns:us-east-1:123456789012:chunk-audits"
	cfg.Email.Enabled = true
	cfg.Email.FromEmail = "audits@example.com"
	cfg.Email.ToEmails = []string{"docs-team@example.com"}
	return cfg
}

func newTestNotifier(t *testing.T, cfg config.NotificationConfig, mockSNS *MockSNSService, mockSES *MockSESService) *Notifier {
	t.Helper()
	gen := NewGenerator(testReportingConfig(t.TempDir()), NewTestLogger(t))
	return NewNotifier(cfg, mockSNS, mockSES, gen, NewTestLogger(t))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestNotifier_NotifyRunComplete_PublishesBothChannels(t *testing.T) {
	report := reportFixture(t)

	mockSNS := &MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput) (*sns.PublishOutput, error) {
			assert.Equal(t, "arn:aws:sns:us-east-1:123456789012:chunk-audits", *params.TopicArn)
			assert.Equal(t, "Chunk audit attention needed: https://docs.example.com/guide", *params.Subject)

			var payload runSummary
			require.NoError(t, json.Unmarshal([]byte(*params.Message), &payload))
			assert.Equal(t, "run-0001", payload.RunID)
			assert.Equal(t, "https://docs.example.com/guide", payload.SourceOrigin)
			assert.Equal(t, 3, payload.TotalChunks)
			assert.Equal(t, 1, payload.PassingChunks)
			assert.Equal(t, 1, payload.DegradedCount)
			assert.Equal(t, 1, payload.FailedCount)
			assert.False(t, payload.Passing)
			assert.Equal(t, "2026-08-21T10:00:05Z", payload.CompletedAt)
			return &sns.PublishOutput{}, nil
		},
	}
	mockSES := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
			assert.Equal(t, []string{"docs-team@example.com"}, params.Destination.ToAddresses)
			assert.Equal(t, "audits@example.com", *params.Source)
			assert.Equal(t, "Chunk audit attention needed: https://docs.example.com/guide", *params.Message.Subject.Data)

			body := *params.Message.Body.Text.Data
			assert.Contains(t, body, "CHUNK AUDIT SUMMARY")
			assert.Contains(t, body, "Source: https://docs.example.com/guide")
			assert.Contains(t, body, "Average Score: 65.0/100")
			return &ses.SendEmailOutput{}, nil
		},
	}

	notifier := newTestNotifier(t, notificationConfig(), mockSNS, mockSES)
	err := notifier.NotifyRunComplete(context.Background(), report)

	assert.NoError(t, err)
	assert.Equal(t, 1, mockSNS.Calls)
	assert.Equal(t, 1, mockSES.Calls)
}

func TestNotifier_NotifyRunComplete_Disabled(t *testing.T) {
	mockSNS := &MockSNSService{}
	mockSES := &MockSESService{}

	cfg := notificationConfig()
	cfg.Enabled = false

	notifier := newTestNotifier(t, cfg, mockSNS, mockSES)
	err := notifier.NotifyRunComplete(context.Background(), reportFixture(t))

	assert.NoError(t, err)
	assert.Equal(t, 0, mockSNS.Calls)
	assert.Equal(t, 0, mockSES.Calls)
}

func TestNotifier_NotifyRunComplete_ChannelFlags(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(cfg *config.NotificationConfig)
		expectedSNS   int
		expectedEmail int
	}{
		{
			name:          "sns disabled",
			mutate:        func(cfg *config.NotificationConfig) { cfg.SNS.Enabled = false },
			expectedSNS:   0,
			expectedEmail: 1,
		},
		{
			name:          "email disabled",
			mutate:        func(cfg *config.NotificationConfig) { cfg.Email.Enabled = false },
			expectedSNS:   1,
			expectedEmail: 0,
		},
		{
			name:          "empty topic arn skips sns",
			mutate:        func(cfg *config.NotificationConfig) { cfg.SNS.TopicARN = "" },
			expectedSNS:   0,
			expectedEmail: 1,
		},
		{
			name:          "no recipients skips email",
			mutate:        func(cfg *config.NotificationConfig) { cfg.Email.ToEmails = nil },
			expectedSNS:   1,
			expectedEmail: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSNS := &MockSNSService{}
			mockSES := &MockSESService{}

			cfg := notificationConfig()
			tt.mutate(&cfg)

			notifier := newTestNotifier(t, cfg, mockSNS, mockSES)
			err := notifier.NotifyRunComplete(context.Background(), reportFixture(t))

			assert.NoError(t, err)
			assert.Equal(t, tt.expectedSNS, mockSNS.Calls)
			assert.Equal(t, tt.expectedEmail, mockSES.Calls)
		})
	}
}

// ==========================
// Error Handling Tests
// ==========================

func TestNotifier_NotifyRunComplete_SNSFailureStillSendsEmail(t *testing.T) {
	mockSNS := &MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput) (*sns.PublishOutput, error) {
			return nil, errors.New("topic does not exist")
		},
	}
	mockSES := &MockSESService{}

	notifier := newTestNotifier(t, notificationConfig(), mockSNS, mockSES)
	err := notifier.NotifyRunComplete(context.Background(), reportFixture(t))

	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrNotificationSendFailed)
	assert.Contains(t, err.Error(), "topic does not exist")
	assert.Equal(t, 1, mockSES.Calls, "email channel should still be attempted")
}

func TestNotifier_NotifyRunComplete_EmailFailure(t *testing.T) {
	mockSNS := &MockSNSService{}
	mockSES := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
			return nil, errors.New("address not verified")
		},
	}

	notifier := newTestNotifier(t, notificationConfig(), mockSNS, mockSES)
	err := notifier.NotifyRunComplete(context.Background(), reportFixture(t))

	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrNotificationSendFailed)
	assert.Contains(t, err.Error(), "address not verified")
	assert.Equal(t, 1, mockSNS.Calls)
}

// ==========================
// Subject Line Tests
// ==========================

func TestSubjectLine(t *testing.T) {
	report := reportFixture(t)
	assert.Equal(t, "Chunk audit attention needed: https://docs.example.com/guide", subjectLine(report))

	report.Passing = true
	report.Source.Origin = ""
	assert.Equal(t, "Chunk audit passed: inline content", subjectLine(report))
}
