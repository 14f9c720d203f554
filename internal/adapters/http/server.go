// Package httpapi is the JSON API consumed by the club's web front end.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"jidokhae/internal/metrics"
	"jidokhae/internal/ports/input"
	"jidokhae/internal/ports/output"
)

// Localizer renders messages and picks the caller's locale.
type Localizer interface {
	output.T
	Locale(acceptLanguage string) string
}

type Deps struct {
	Auth          input.AuthUseCase
	Meetings      input.MeetingUseCase
	Registrations input.RegistrationUseCase
	Waitlist      input.WaitlistUseCase
	Reviews       input.ReviewUseCase
	Praises       input.PraiseUseCase
	Badges        input.BadgeUseCase
	Policies      input.RefundPolicyUseCase
	Cron          input.CronUseCase
	Tokens        output.TokenIssuer
	Translator    Localizer
	Logger        *zap.Logger

	Addr            string
	CronSecret      string
	TrustVercelCron bool
	SecureCookie    bool
}

type Server struct {
	auth          input.AuthUseCase
	meetings      input.MeetingUseCase
	registrations input.RegistrationUseCase
	waitlist      input.WaitlistUseCase
	reviews       input.ReviewUseCase
	praises       input.PraiseUseCase
	badges        input.BadgeUseCase
	policies      input.RefundPolicyUseCase
	cron          input.CronUseCase
	tokens        output.TokenIssuer
	translator    Localizer
	logger        *zap.Logger

	cronSecret      string
	trustVercelCron bool
	secureCookie    bool

	router *gin.Engine
	http   *http.Server
}

func NewServer(d Deps) *Server {
	s := &Server{
		auth:            d.Auth,
		meetings:        d.Meetings,
		registrations:   d.Registrations,
		waitlist:        d.Waitlist,
		reviews:         d.Reviews,
		praises:         d.Praises,
		badges:          d.Badges,
		policies:        d.Policies,
		cron:            d.Cron,
		tokens:          d.Tokens,
		translator:      d.Translator,
		logger:          d.Logger,
		cronSecret:      d.CronSecret,
		trustVercelCron: d.TrustVercelCron,
		secureCookie:    d.SecureCookie,
	}
	s.router = s.routes()
	s.http = &http.Server{
		Addr:              d.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(s.recovery(), s.requestLogger(), s.localeMiddleware(), s.authenticate())

	r.GET("/healthz", func(c *gin.Context) { ok(c, http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	{
		api.POST("/auth/signup", s.signup)
		api.POST("/auth/login", s.login)
		api.POST("/auth/logout", s.logout)

		api.GET("/meetings", s.listMeetings)
		api.GET("/meetings/:id", s.getMeeting)
		api.GET("/meetings/:id/reviews", s.listReviews)
		api.GET("/praise-phrases", s.praisePhrases)

		api.POST("/payments/complete", s.completePayment)
		api.POST("/webhooks/payment", s.paymentWebhook)

		cron := api.Group("/cron", s.cronAuth())
		cron.GET("/:job", s.runJob)
		cron.POST("/:job", s.runJob)
	}

	member := api.Group("", s.requireAuth())
	{
		member.GET("/me", s.me)
		member.PATCH("/me", s.updateMe)
		member.GET("/me/registrations", s.myRegistrations)
		member.GET("/me/waitlists", s.myWaitlists)
		member.GET("/me/badges", s.myBadges)
		member.GET("/me/praises/received", s.praisesReceived)
		member.GET("/me/praises/given", s.praisesGiven)
		member.GET("/me/reviews", s.myReviews)

		member.POST("/meetings/:id/registrations", s.register)
		member.POST("/registrations/:id/cancel", s.cancelRegistration)
		member.POST("/meetings/:id/waitlist", s.joinWaitlist)
		member.DELETE("/meetings/:id/waitlist", s.leaveWaitlist)
		member.POST("/meetings/:id/reviews", s.writeReview)
		member.POST("/meetings/:id/praises", s.givePraise)
	}

	admin := api.Group("/admin", s.requireAuth(), s.requireAdmin())
	{
		admin.POST("/meetings", s.createMeeting)
		admin.PUT("/meetings/:id", s.updateMeeting)
		admin.POST("/meetings/:id/cancel", s.cancelMeeting)
		admin.GET("/meetings/:id/registrations", s.meetingRoster)
		admin.GET("/meetings/:id/export", s.exportRoster)
		admin.POST("/meetings/:id/attendance", s.markAttendance)
		admin.POST("/registrations/:id/confirm-transfer", s.confirmTransfer)
		admin.GET("/refund-policies", s.listPolicies)
		admin.POST("/refund-policies", s.createPolicy)
	}

	r.NoRoute(func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusNotFound, errorEnvelope{Error: errorBody{Message: "not found"}})
	})
	return r
}

// Start serves until Shutdown. It returns nil after a graceful stop.
func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
