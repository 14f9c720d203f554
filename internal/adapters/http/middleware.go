package httpapi

import (
	"crypto/subtle"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"jidokhae/internal/domain"
	"jidokhae/internal/domain/entities"
)

const (
	cookieName = "jdh_token"

	ctxUserID = "uid"
	ctxRole   = "role"
	ctxLocale = "locale"
)

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if id, ok := userID(c); ok {
			fields = append(fields, zap.String("user_id", id.String()))
		}
		if c.Writer.Status() >= 500 {
			s.logger.Warn("request", fields...)
			return
		}
		s.logger.Info("request", fields...)
	}
}

func (s *Server) recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		s.logger.Error("panic", zap.Any("recovered", recovered), zap.String("path", c.Request.URL.Path))
		s.fail(c, domain.New(domain.CodeInternal))
	})
}

func (s *Server) localeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ctxLocale, s.translator.Locale(c.GetHeader("Accept-Language")))
		c.Next()
	}
}

// authenticate resolves the caller when a valid token is present. It never
// rejects; requireAuth does.
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c.GetHeader("Authorization"))
		if token == "" {
			token, _ = c.Cookie(cookieName)
		}
		if token != "" {
			if claims, err := s.tokens.Parse(token); err == nil {
				c.Set(ctxUserID, claims.UserID)
				c.Set(ctxRole, claims.Role)
			}
		}
		c.Next()
	}
}

func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := userID(c); !ok {
			s.fail(c, domain.ErrUnauthorized)
			return
		}
		c.Next()
	}
}

func (s *Server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if role, _ := c.Get(ctxRole); role != entities.RoleAdmin {
			s.fail(c, domain.ErrForbidden)
			return
		}
		c.Next()
	}
}

// cronAuth accepts the shared secret as a bearer token, or the platform cron
// header when it is trusted.
func (s *Server) cronAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c.GetHeader("Authorization"))
		switch {
		case token != "" && subtle.ConstantTimeCompare([]byte(token), []byte(s.cronSecret)) == 1:
		case s.trustVercelCron && c.GetHeader("x-vercel-cron") == "1":
		default:
			s.fail(c, domain.ErrCronUnauthorized)
			return
		}
		c.Next()
	}
}

func bearer(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

func userID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// viewer is the caller's id, or uuid.Nil when anonymous.
func viewer(c *gin.Context) uuid.UUID {
	id, _ := userID(c)
	return id
}

func locale(c *gin.Context) string {
	return c.GetString(ctxLocale)
}
