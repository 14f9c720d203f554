package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"jidokhae/internal/adapters/discord"
	httpapi "jidokhae/internal/adapters/http"
	"jidokhae/internal/application"
	"jidokhae/internal/config"
	"jidokhae/internal/infrastructure/auth"
	"jidokhae/internal/infrastructure/cache"
	"jidokhae/internal/infrastructure/database"
	"jidokhae/internal/infrastructure/export"
	"jidokhae/internal/infrastructure/i18n"
	"jidokhae/internal/infrastructure/logger"
	"jidokhae/internal/infrastructure/messaging"
	"jidokhae/internal/infrastructure/payment"
	"jidokhae/internal/ports/input"
	"jidokhae/internal/ports/output"
)

// app holds the wired services of one process.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	pool   *pgxpool.Pool
	closes []func()

	cron *application.CronService
	deps httpapi.Deps
}

func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat, "jidokhae")
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}
	return cfg, log, nil
}

func newApp(ctx context.Context) (*app, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: log}

	pool, err := database.NewPool(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return nil, err
	}
	a.pool = pool
	a.closes = append(a.closes, pool.Close)

	var locker output.Locker = cache.NopLocker{}
	var limiter output.RateLimiter = cache.NopLimiter{}
	if cfg.RedisAddr != "" {
		rdb, err := cache.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			a.close()
			return nil, err
		}
		a.closes = append(a.closes, func() { _ = rdb.Close() })
		locker, limiter = cache.NewRedisLocker(rdb), cache.NewRedisLimiter(rdb)
	} else {
		log.Warn("REDIS_ADDR not set, job locks and rate limits are disabled")
	}

	alerts, err := discord.NewWebhook(cfg.DiscordWebhookURL, log)
	if err != nil {
		a.close()
		return nil, err
	}

	var messenger output.Messenger
	if cfg.MessagingDryRun {
		log.Warn("messaging dry-run, messages are only logged")
		messenger = messaging.NewDryRun(log)
	} else {
		messenger = messaging.NewSolapi(cfg.SolapiBaseURL, cfg.SolapiAPIKey, cfg.SolapiAPISecret, cfg.SenderNumber, cfg.KakaoPfID, log)
	}

	translator := i18n.NewTranslator(cfg.DefaultLocale, log)
	gateway := payment.NewPortOne(cfg.PortOneBaseURL, cfg.PortOneAPIKey, cfg.PortOneAPISecret, log)
	tokens := auth.NewJWTManager(cfg.JWTSecret, auth.SessionTTL)

	users := database.NewUserRepository(pool)
	meetings := database.NewMeetingRepository(pool)
	registrations := database.NewRegistrationRepository(pool)
	waitlists := database.NewWaitlistRepository(pool)
	reviews := database.NewReviewRepository(pool)
	praises := database.NewPraiseRepository(pool)
	badges := database.NewBadgeRepository(pool)
	logs := database.NewNotificationLogRepository(pool)
	policies := database.NewRefundPolicyRepository(pool)

	notifier := application.NewNotificationService(users, logs, messenger, translator, cfg.DefaultLocale, cfg.KakaoTemplates, log)
	badgeSvc := application.NewBadgeService(badges, registrations, reviews, praises, log)
	waitlistSvc := application.NewWaitlistService(waitlists, meetings, registrations, notifier, cfg.WaitlistOfferTTL, log)
	registrationSvc := application.NewRegistrationService(
		registrations, meetings, users, policies,
		waitlistSvc, badgeSvc, notifier, gateway, limiter, alerts,
		application.RegistrationSettings{
			TransferDeadline: cfg.TransferDeadline,
			PendingTTL:       cfg.PendingPaymentTTL,
			Account:          input.BankAccount{Bank: cfg.BankName, Number: cfg.BankAccount, Holder: cfg.BankHolder},
		},
		log,
	)
	meetingSvc := application.NewMeetingService(meetings, registrations, waitlists, policies, registrationSvc, export.Roster{}, log)
	reminderSvc := application.NewReminderService(meetings, registrations, users, notifier, log)
	a.cron = application.NewCronService(application.DefaultJobs(reminderSvc, waitlistSvc, registrationSvc), locker, alerts, log)

	a.deps = httpapi.Deps{
		Auth:            application.NewAuthService(users, badges, auth.BcryptHasher{}, tokens, notifier, log),
		Meetings:        meetingSvc,
		Registrations:   registrationSvc,
		Waitlist:        waitlistSvc,
		Reviews:         application.NewReviewService(reviews, meetings, registrations, badgeSvc, log),
		Praises:         application.NewPraiseService(praises, meetings, registrations, badgeSvc, notifier, log),
		Badges:          badgeSvc,
		Policies:        application.NewRefundPolicyService(policies),
		Cron:            a.cron,
		Tokens:          tokens,
		Translator:      translator,
		Logger:          log,
		Addr:            cfg.HTTPAddr,
		CronSecret:      cfg.CronSecret,
		TrustVercelCron: cfg.TrustVercelCron,
		SecureCookie:    cfg.CookieSecure,
	}
	return a, nil
}

func (a *app) close() {
	for i := len(a.closes) - 1; i >= 0; i-- {
		a.closes[i]()
	}
	_ = a.logger.Sync()
}
