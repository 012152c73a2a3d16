// Package notify emails parents when a completion is waiting for approval
package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"homeheroes/internal/engine"
)

// EmailNotifier sends approval-needed emails via Amazon SES
type EmailNotifier struct {
	client    *sesv2.Client
	fromEmail string
	toEmail   string
	enabled   bool
}

// NewEmailNotifier creates a notifier. When fromEmail or toEmail is empty
// the notifier is disabled and sends nothing.
func NewEmailNotifier(ctx context.Context, fromEmail, toEmail string) (*EmailNotifier, error) {
	if fromEmail == "" || toEmail == "" {
		log.Println("Email notifications disabled: EMAIL_FROM or PARENT_EMAIL not configured")
		return &EmailNotifier{enabled: false}, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Printf("Email notifications enabled: from=%s to=%s", fromEmail, toEmail)
	return &EmailNotifier{
		client:    sesv2.NewFromConfig(cfg),
		fromEmail: fromEmail,
		toEmail:   toEmail,
		enabled:   true,
	}, nil
}

// IsEnabled returns whether the notifier will send emails
func (n *EmailNotifier) IsEnabled() bool {
	return n.enabled
}

// TaskPending emails the parent that a completion is waiting for approval.
// Failures are logged, never propagated: a lost email must not fail the
// command that triggered it.
func (n *EmailNotifier) TaskPending(ctx context.Context, pending engine.PendingApproval) {
	if !n.enabled {
		return
	}

	subject := fmt.Sprintf("%s finished a chore", pending.PlayerName)
	body := fmt.Sprintf("%s marked %q (%d points) as done and is waiting for your approval.",
		pending.PlayerName, pending.TaskTitle, pending.TaskValue)

	_, err := n.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(n.fromEmail),
		Destination: &types.Destination{
			ToAddresses: []string{n.toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body)},
				},
			},
		},
	})
	if err != nil {
		log.Printf("Failed to send approval email: %v", err)
	}
}
