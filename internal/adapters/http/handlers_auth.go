package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"jidokhae/internal/ports/input"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) setSession(c *gin.Context, session *input.Session) {
	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cookieName, session.Token, maxAge, "/", "", s.secureCookie, true)
}

func (s *Server) signup(c *gin.Context) {
	var in input.SignupInput
	if !s.bind(c, &in) {
		return
	}
	session, err := s.auth.Signup(c.Request.Context(), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.setSession(c, session)
	ok(c, http.StatusCreated, session)
}

func (s *Server) login(c *gin.Context) {
	var in loginRequest
	if !s.bind(c, &in) {
		return
	}
	session, err := s.auth.Login(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.setSession(c, session)
	ok(c, http.StatusOK, session)
}

func (s *Server) logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cookieName, "", -1, "/", "", s.secureCookie, true)
	ok(c, http.StatusOK, gin.H{"logged_out": true})
}

func (s *Server) me(c *gin.Context) {
	profile, err := s.auth.Profile(c.Request.Context(), viewer(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, profile)
}

func (s *Server) updateMe(c *gin.Context) {
	var in input.ProfileInput
	if !s.bind(c, &in) {
		return
	}
	user, err := s.auth.UpdateProfile(c.Request.Context(), viewer(c), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, user)
}

func (s *Server) myRegistrations(c *gin.Context) {
	regs, err := s.registrations.MyRegistrations(c.Request.Context(), viewer(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, regs)
}

func (s *Server) myWaitlists(c *gin.Context) {
	entries, err := s.waitlist.MyWaitlists(c.Request.Context(), viewer(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, entries)
}

func (s *Server) myBadges(c *gin.Context) {
	badges, err := s.badges.List(c.Request.Context(), viewer(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, badges)
}

func (s *Server) praisesReceived(c *gin.Context) {
	praises, err := s.praises.Received(c.Request.Context(), viewer(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, praises)
}

func (s *Server) praisesGiven(c *gin.Context) {
	praises, err := s.praises.Given(c.Request.Context(), viewer(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, praises)
}

func (s *Server) myReviews(c *gin.Context) {
	reviews, err := s.reviews.MyReviews(c.Request.Context(), viewer(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, reviews)
}
