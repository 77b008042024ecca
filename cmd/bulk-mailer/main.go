package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

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

var (
	// Report flags
	dashboard = flag.Bool("dashboard", false, "Print roster-wide category counts")
	category  = flag.String("category", "", "List cases in one category")
	limit     = flag.Int("limit", 25, "Maximum cases to list or mail")

	// Mailing flags
	send     = flag.Bool("send", false, "Send follow-ups to every listed case (requires -category)")
	draftPV  = flag.String("draft", "", "Print a draft for one PV without sending")
	kindFlag = flag.String("kind", "follow_up", "Draft kind (follow_up, status_request, statute_inquiry)")

	// Acknowledgment flags
	ackPV   = flag.String("ack", "", "Acknowledge (snooze) one PV")
	ackDays = flag.Int("ack-days", 0, "Snooze duration in days (0 = indefinite)")
	ackBy   = flag.String("ack-by", "", "Operator acknowledging the case")
	ackNote = flag.String("ack-note", "", "Reason for the acknowledgment")
	unackPV = flag.String("unack", "", "Remove the snooze for one PV")

	// Sync and logging flags
	fullSync   = flag.Bool("full-sync", false, "Re-download the whole mailbox before classifying")
	cacheStats = flag.Bool("cache-stats", false, "Print mailbox mirror statistics")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog    = flag.Bool("json-log", false, "Output logs in JSON format")
)

func main() {
	flag.Parse()

	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(logger); err != nil {
		logger.Error("Command failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(logger *zap.Logger) error {
	ctx := context.Background()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ackLedger := ack.NewLedger(cfg.GetString("ack.path"), logger)

	// Acknowledgment maintenance needs no mail stack at all.
	switch {
	case *ackPV != "":
		if err := ackLedger.Acknowledge(*ackPV, *ackBy, *ackNote, "", "", *ackDays); err != nil {
			return err
		}
		fmt.Printf("Acknowledged PV %s", *ackPV)
		if *ackDays > 0 {
			fmt.Printf(" for %d days", *ackDays)
		}
		fmt.Println()
		return nil
	case *unackPV != "":
		if err := ackLedger.Unacknowledge(*unackPV); err != nil {
			return err
		}
		fmt.Printf("Unacknowledged PV %s\n", *unackPV)
		return nil
	}

	index, err := roster.LoadIndex(cfg.GetString("roster.path"), logger)
	if err != nil {
		return err
	}
	ledger := sentlog.NewLedger(cfg.GetString("ledger.path"), logger)

	// The provider is only dialed when the invocation actually talks to
	// the mailbox; pure reporting runs offline from the mirror.
	providerFactory := factory.NewProviderFactory(cfg, logger)
	var provider core.MailProvider
	var fallback core.Sender
	if *fullSync || *send {
		provider, err = providerFactory.CreateMailProvider(ctx)
		if err != nil {
			logger.Warn("Mail provider unavailable, sends use the SMTP relay", zap.Error(err))
			provider = nil
			if fallback, err = providerFactory.CreateSender(); err != nil {
				return err
			}
		}
	}

	maxAge, err := cfg.GetDuration("cache.max_age")
	if err != nil {
		return err
	}
	mailCfg := cfg.GetMail()
	selfIDs := mailCfg.SelfIdentifiers
	if mailCfg.Account != "" {
		selfIDs = append(selfIDs, mailCfg.Account)
	}
	cache := emailcache.NewCache(cfg.GetString("cache.path"), provider, selfIDs, maxAge, logger)

	store, err := factory.NewStoreFactory(cfg, logger).CreateTrackingStore()
	if err != nil {
		return err
	}
	defer store.Close()

	classifierCfg, err := cfg.GetClassifier()
	if err != nil {
		return err
	}
	classifier := core.NewStaleCaseClassifier(
		index,
		cache,
		core.NewContactResolver(ledger, logger),
		store,
		core.ClassifierSettings{
			ResultTTL:          classifierCfg.ResultTTL,
			CriticalDays:       classifierCfg.CriticalDays,
			HighPriorityDays:   classifierCfg.HighPriorityDays,
			FollowUpDays:       classifierCfg.FollowUpDays,
			StatuteYears:       classifierCfg.StatuteYears,
			DOISentinelYear:    classifierCfg.DOISentinelYear,
			LitigationKeywords: classifierCfg.LitigationKeywords,
		},
		logger,
	)

	// Drafters dial external APIs on creation, so only mailing paths
	// build one.
	var drafter core.Drafter
	if *send || *draftPV != "" {
		drafter, err = factory.NewDrafterFactory(cfg, logger).CreateDrafter()
		if err != nil {
			return err
		}
		if closer, ok := drafter.(interface{ Close() error }); ok {
			defer closer.Close()
		}
	}

	service := core.NewTrackerService(cache, classifier, index, provider, fallback, drafter, ledger, ackLedger, logger)

	if *fullSync {
		n, err := cache.FullSync(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Synced %d emails\n", n)
	}

	switch {
	case *cacheStats:
		s := cache.Stats()
		fmt.Printf("Cached emails:       %d\n", s.Total)
		fmt.Printf("  sent by us:        %d\n", s.Sent)
		fmt.Printf("  received:          %d\n", s.Received)
		fmt.Printf("  collections-like:  %d\n", s.Collections)
		if s.LastSync.IsZero() {
			fmt.Println("Last sync:           never")
		} else {
			fmt.Printf("Last sync:           %s\n", s.LastSync.Format("2006-01-02 15:04"))
		}
		return nil
	case *draftPV != "":
		body, err := service.DraftEmail(ctx, *draftPV, parseKind(*kindFlag))
		if err != nil {
			return err
		}
		fmt.Println(body)
		return nil
	case *dashboard:
		return printDashboard(ctx, service)
	case *category != "":
		return mailCategory(ctx, service)
	}

	flag.Usage()
	return nil
}

func printDashboard(ctx context.Context, service *core.TrackerService) error {
	d, err := service.Dashboard(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Total cases:     %d\n", d.TotalCases)
	fmt.Printf("Stale 30+ days:  %d\n", d.Stale30Days)
	fmt.Printf("Stale 60+ days:  %d\n", d.Stale60Days)
	fmt.Printf("Stale 90+ days:  %d\n", d.Stale90Days)
	fmt.Printf("Acknowledged:    %d\n", d.Acknowledged)
	fmt.Println()
	for _, cat := range core.Categories() {
		fmt.Printf("%-18s %d\n", cat, d.ByCategory[cat])
	}
	return nil
}

func mailCategory(ctx context.Context, service *core.TrackerService) error {
	page, err := service.CategoryReport(ctx, *category, *limit)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d cases (%d shown, %d more)\n\n",
		page.Category, page.Total, len(page.Cases), page.Remaining)

	for _, cs := range page.Cases {
		marker := "never contacted"
		if cs.HasContact {
			marker = fmt.Sprintf("%d days since contact (%s)", cs.DaysSinceContact, cs.ContactSource)
		}
		fmt.Printf("PV %-8s %-24s %s\n", cs.PV, cs.Name, marker)

		if !*send {
			continue
		}
		msgID, err := service.SendFollowUp(ctx, cs.PV, parseKind(*kindFlag))
		if err != nil {
			fmt.Printf("  send failed: %v\n", err)
			continue
		}
		fmt.Printf("  sent (%s)\n", msgID)
	}
	return nil
}

func parseKind(s string) core.DraftKind {
	switch core.DraftKind(strings.TrimSpace(s)) {
	case core.DraftStatusRequest:
		return core.DraftStatusRequest
	case core.DraftStatuteInquiry:
		return core.DraftStatuteInquiry
	default:
		return core.DraftFollowUp
	}
}
