package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"go.uber.org/zap"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/liendesk/collections-tracker/internal/core"
)

const defaultPageSize = 100

// Provider talks to the Gmail API on behalf of the office account.
type Provider struct {
	svc      *gmailapi.Service
	account  string
	pageSize int64
	logger   *zap.Logger
}

// NewProvider builds a Gmail client from an OAuth credentials file.
// account is the mailbox address, used as the From header on sends.
func NewProvider(ctx context.Context, account, credentialsFile string, pageSize int, logger *zap.Logger) (*Provider, error) {
	svc, err := gmailapi.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(gmailapi.GmailReadonlyScope, gmailapi.GmailSendScope))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}
	ps := int64(pageSize)
	if ps <= 0 {
		ps = defaultPageSize
	}
	return &Provider{svc: svc, account: account, pageSize: ps, logger: logger}, nil
}

// Search lists messages matching a Gmail query and fetches their header
// metadata. maxResults <= 0 walks every result page. A message that
// fails to fetch individually is skipped, not fatal; only the listing
// itself can fail the search.
func (p *Provider) Search(ctx context.Context, query string, maxResults int) ([]core.EmailRecord, error) {
	var records []core.EmailRecord
	pageToken := ""
	for {
		call := p.svc.Users.Messages.List("me").
			Q(query).
			MaxResults(p.pageSize).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("gmail list failed: %w", err)
		}

		for _, ref := range resp.Messages {
			msg, err := p.svc.Users.Messages.Get("me", ref.Id).
				Format("metadata").
				MetadataHeaders("From", "To", "Subject", "Date").
				Context(ctx).
				Do()
			if err != nil {
				p.logger.Warn("Failed to fetch message, skipping",
					zap.String("message_id", ref.Id), zap.Error(err))
				continue
			}
			records = append(records, toRecord(msg))
			if maxResults > 0 && len(records) >= maxResults {
				return records, nil
			}
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			return records, nil
		}
	}
}

// Send delivers a plain-text message through the account and returns the
// provider message id. threadID, when set, keeps the reply in-thread.
func (p *Provider) Send(ctx context.Context, to, subject, body, threadID string) (string, error) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("From: %s\r\n", p.account))
	sb.WriteString(fmt.Sprintf("To: %s\r\n", to))
	sb.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	sb.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)

	msg := &gmailapi.Message{
		Raw:      base64.URLEncoding.EncodeToString([]byte(sb.String())),
		ThreadId: threadID,
	}
	sent, err := p.svc.Users.Messages.Send("me", msg).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("gmail send failed: %w", err)
	}
	p.logger.Info("Email sent",
		zap.String("to", to), zap.String("message_id", sent.Id))
	return sent.Id, nil
}

func toRecord(msg *gmailapi.Message) core.EmailRecord {
	rec := core.EmailRecord{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Snippet:  msg.Snippet,
	}
	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			switch h.Name {
			case "From":
				rec.From = h.Value
			case "To":
				rec.To = h.Value
			case "Subject":
				rec.Subject = h.Value
			case "Date":
				rec.Date = h.Value
			}
		}
	}
	return rec
}
