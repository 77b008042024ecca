package di

import (
	"context"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/liendesk/collections-tracker/internal/adapters/ack"
	"github.com/liendesk/collections-tracker/internal/adapters/emailcache"
	"github.com/liendesk/collections-tracker/internal/adapters/roster"
	"github.com/liendesk/collections-tracker/internal/adapters/sentlog"
	"github.com/liendesk/collections-tracker/internal/config"
	"github.com/liendesk/collections-tracker/internal/core"
	"github.com/liendesk/collections-tracker/internal/factory"
	"github.com/liendesk/collections-tracker/internal/logging"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewProviderFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewDrafterFactory); err != nil {
		return nil, err
	}

	// Register the case roster
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) (core.CaseIndex, error) {
		return roster.LoadIndex(cfg.GetString("roster.path"), logger)
	}); err != nil {
		return nil, err
	}

	// Register the sent-email ledger under both of its roles
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *sentlog.Ledger {
		return sentlog.NewLedger(cfg.GetString("ledger.path"), logger)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(l *sentlog.Ledger) core.SentLedger { return l }); err != nil {
		return nil, err
	}
	if err := container.Provide(func(l *sentlog.Ledger) core.SendRecorder { return l }); err != nil {
		return nil, err
	}

	// Register the acknowledgment ledger
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *ack.Ledger {
		return ack.NewLedger(cfg.GetString("ack.path"), logger)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(l *ack.Ledger) core.AckLedger { return l }); err != nil {
		return nil, err
	}

	// Register the mail provider
	if err := container.Provide(func(f *factory.ProviderFactory) (core.MailProvider, error) {
		return f.CreateMailProvider(context.Background())
	}); err != nil {
		return nil, err
	}

	// Register the mailbox mirror
	if err := container.Provide(func(cfg *config.Config, provider core.MailProvider, logger *zap.Logger) (*emailcache.Cache, error) {
		maxAge, err := cfg.GetDuration("cache.max_age")
		if err != nil {
			return nil, err
		}
		mailCfg := cfg.GetMail()
		selfIDs := mailCfg.SelfIdentifiers
		if mailCfg.Account != "" {
			selfIDs = append(selfIDs, mailCfg.Account)
		}
		return emailcache.NewCache(
			cfg.GetString("cache.path"),
			provider,
			selfIDs,
			maxAge,
			logger,
		), nil
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(c *emailcache.Cache) core.MailMirror { return c }); err != nil {
		return nil, err
	}

	// Register the contact resolver
	if err := container.Provide(core.NewContactResolver); err != nil {
		return nil, err
	}

	// Register the tracking store
	if err := container.Provide(func(f *factory.StoreFactory) (core.TrackingStore, error) {
		return f.CreateTrackingStore()
	}); err != nil {
		return nil, err
	}

	// Register classifier settings
	if err := container.Provide(func(cfg *config.Config) (core.ClassifierSettings, error) {
		c, err := cfg.GetClassifier()
		if err != nil {
			return core.ClassifierSettings{}, err
		}
		return core.ClassifierSettings{
			ResultTTL:          c.ResultTTL,
			CriticalDays:       c.CriticalDays,
			HighPriorityDays:   c.HighPriorityDays,
			FollowUpDays:       c.FollowUpDays,
			StatuteYears:       c.StatuteYears,
			DOISentinelYear:    c.DOISentinelYear,
			LitigationKeywords: c.LitigationKeywords,
		}, nil
	}); err != nil {
		return nil, err
	}

	// Register the classifier
	if err := container.Provide(func(
		index core.CaseIndex,
		mirror core.MailMirror,
		resolver *core.ContactResolver,
		store core.TrackingStore,
		settings core.ClassifierSettings,
		logger *zap.Logger,
	) *core.StaleCaseClassifier {
		return core.NewStaleCaseClassifier(index, mirror, resolver, store, settings, logger)
	}); err != nil {
		return nil, err
	}

	// Register the SMTP fallback sender
	if err := container.Provide(func(f *factory.ProviderFactory) (core.Sender, error) {
		return f.CreateSender()
	}); err != nil {
		return nil, err
	}

	// Register the drafter
	if err := container.Provide(func(f *factory.DrafterFactory) (core.Drafter, error) {
		return f.CreateDrafter()
	}); err != nil {
		return nil, err
	}

	// Register the tracker service
	if err := container.Provide(core.NewTrackerService); err != nil {
		return nil, err
	}

	return container, nil
}
