// internal/report/notifier.go
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"chunk-auditor/internal/common/config"
)

var ErrNotificationSendFailed = errors.New("NOTIFICATION_SEND_FAILED")

// Interfaces over the AWS wrappers so tests can substitute fakes.
type SNSService interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

type SESService interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

// runSummary is the JSON payload published to SNS subscribers.
type runSummary struct {
	RunID         string  `json:"run_id"`
	SourceOrigin  string  `json:"source_origin,omitempty"`
	TotalChunks   int     `json:"total_chunks"`
	PassingChunks int     `json:"passing_chunks"`
	PassingRate   float64 `json:"passing_rate"`
	AverageScore  float64 `json:"average_score"`
	DegradedCount int     `json:"degraded_chunks"`
	FailedCount   int     `json:"failed_chunks"`
	Passing       bool    `json:"passing"`
	CompletedAt   string  `json:"completed_at"`
}

// Notifier announces finished runs over SNS and email. Channels are attempted
// independently so one broken channel never silences the other.
type Notifier struct {
	cfg       config.NotificationConfig
	sns       SNSService
	ses       SESService
	generator *Generator
	logger    Logger
}

func NewNotifier(cfg config.NotificationConfig, snsClient SNSService, sesClient SESService, gen *Generator, log Logger) *Notifier {
	return &Notifier{
		cfg:       cfg,
		sns:       snsClient,
		ses:       sesClient,
		generator: gen,
		logger:    log,
	}
}

// NotifyRunComplete publishes the run summary to every enabled channel and
// returns an error when any attempted channel failed. Callers treat that as
// non-fatal: the audit itself already succeeded.
func (n *Notifier) NotifyRunComplete(ctx context.Context, report *RunReport) error {
	if !n.cfg.Enabled {
		n.logger.Debug("notifications disabled", map[string]interface{}{
			"runId": report.RunID,
		})
		return nil
	}

	var firstErr error

	if n.cfg.SNS.Enabled && n.cfg.SNS.TopicARN != "" && n.sns != nil {
		if err := n.publishSNS(ctx, report); err != nil {
			n.logger.Error("sns publish failed", map[string]interface{}{
				"runId": report.RunID,
				"topic": n.cfg.SNS.TopicARN,
				"error": err.Error(),
			})
			firstErr = err
		}
	}

	if n.cfg.Email.Enabled && len(n.cfg.Email.ToEmails) > 0 && n.ses != nil {
		if err := n.sendEmail(ctx, report); err != nil {
			n.logger.Error("email send failed", map[string]interface{}{
				"runId": report.RunID,
				"error": err.Error(),
			})
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if firstErr != nil {
		return fmt.Errorf("%w: %v", ErrNotificationSendFailed, firstErr)
	}
	return nil
}

func (n *Notifier) publishSNS(ctx context.Context, report *RunReport) error {
	payload, err := json.Marshal(summaryPayload(report))
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	_, err = n.sns.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.cfg.SNS.TopicARN),
		Subject:  aws.String(subjectLine(report)),
		Message:  aws.String(string(payload)),
	})
	return err
}

func (n *Notifier) sendEmail(ctx context.Context, report *RunReport) error {
	body := n.generator.Summary(report)

	_, err := n.ses.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &sestypes.Destination{
			ToAddresses: n.cfg.Email.ToEmails,
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subjectLine(report))},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.cfg.Email.FromEmail),
	})
	return err
}

func summaryPayload(report *RunReport) runSummary {
	return runSummary{
		RunID:         report.RunID,
		SourceOrigin:  report.Source.Origin,
		TotalChunks:   report.Totals.TotalChunks,
		PassingChunks: report.Totals.PassingChunks,
		PassingRate:   report.Totals.PassingRate,
		AverageScore:  report.Totals.AverageScore,
		DegradedCount: report.Totals.DegradedChunks,
		FailedCount:   report.Totals.FailedChunks,
		Passing:       report.Passing,
		CompletedAt:   report.CompletedAt,
	}
}

func subjectLine(report *RunReport) string {
	status := "passed"
	if !report.Passing {
		status = "attention needed"
	}
	source := report.Source.Origin
	if source == "" {
		source = "inline content"
	}
	return fmt.Sprintf("Chunk audit %s: %s", status, source)
}
