package factory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/liendesk/collections-tracker/internal/adapters/gmail"
	"github.com/liendesk/collections-tracker/internal/adapters/smtpout"
	"github.com/liendesk/collections-tracker/internal/config"
	"github.com/liendesk/collections-tracker/internal/core"
)

// ProviderFactory creates mail providers and outbound senders
type ProviderFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(cfg *config.Config, logger *zap.Logger) *ProviderFactory {
	return &ProviderFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateMailProvider creates a mail provider based on the configuration
func (f *ProviderFactory) CreateMailProvider(ctx context.Context) (core.MailProvider, error) {
	mailCfg := f.cfg.GetMail()

	switch mailCfg.Provider {
	case "gmail":
		return gmail.NewProvider(ctx, mailCfg.Account, mailCfg.CredentialsFile, mailCfg.PageSize, f.logger)
	default:
		return nil, fmt.Errorf("unsupported mail provider: %s", mailCfg.Provider)
	}
}

// CreateSender creates the SMTP relay sender used when sending must
// bypass the mail provider API.
func (f *ProviderFactory) CreateSender() (core.Sender, error) {
	smtpCfg := f.cfg.GetSMTP()
	if smtpCfg.Address == "" {
		return nil, fmt.Errorf("smtp.address is not configured")
	}
	return smtpout.NewSender(smtpCfg.Address, smtpCfg.Username, smtpCfg.Password, smtpCfg.From, f.logger), nil
}
