package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jidokhae/internal/domain"
	"jidokhae/internal/domain/entities"
	"jidokhae/internal/infrastructure/auth"
	"jidokhae/internal/infrastructure/i18n"
	"jidokhae/internal/ports/input"
	"jidokhae/internal/ports/output"
)

const testCronSecret = "cron-secret"

// Stubs embed the use case interface; calling a method a test did not set
// up panics, which gin's recovery turns into a 500.

type stubAuth struct {
	input.AuthUseCase
	users map[uuid.UUID]*entities.User
	token func(*entities.User) *input.Session
}

func (a *stubAuth) Login(_ context.Context, email, password string) (*input.Session, error) {
	for _, u := range a.users {
		if u.Email == email && password == "right" {
			return a.token(u), nil
		}
	}
	return nil, domain.ErrInvalidCredentials
}

func (a *stubAuth) Profile(_ context.Context, id uuid.UUID) (*input.ProfileView, error) {
	u, ok := a.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &input.ProfileView{User: *u, BadgeCount: 2}, nil
}

type stubMeetings struct {
	input.MeetingUseCase
	lastFilter output.MeetingFilter
	lastViewer uuid.UUID
}

func (m *stubMeetings) List(_ context.Context, f output.MeetingFilter, viewer uuid.UUID) ([]input.MeetingView, error) {
	m.lastFilter, m.lastViewer = f, viewer
	return []input.MeetingView{}, nil
}

func (m *stubMeetings) Get(context.Context, uuid.UUID, uuid.UUID) (*input.MeetingView, error) {
	return nil, errors.New("connection reset")
}

func (m *stubMeetings) ExportRoster(context.Context, uuid.UUID) (string, []byte, error) {
	return "roster_20261020.xlsx", []byte("xlsx"), nil
}

type stubRegistrations struct {
	input.RegistrationUseCase
	completeErr error
}

func (r *stubRegistrations) CompletePayment(_ context.Context, impUID, _ string) (*entities.Registration, error) {
	if r.completeErr != nil {
		return nil, r.completeErr
	}
	return &entities.Registration{ID: uuid.New(), PaymentID: impUID, Status: entities.RegistrationConfirmed}, nil
}

type stubPolicies struct{ input.RefundPolicyUseCase }

func (stubPolicies) List(context.Context) ([]entities.RefundPolicy, error) {
	return []entities.RefundPolicy{{Name: "정기모임 기본"}}, nil
}

type stubCron struct{ input.CronUseCase }

func (stubCron) Run(_ context.Context, job string) (*input.JobResult, error) {
	if job != "onboarding" {
		return nil, domain.ErrUnknownJob
	}
	return &input.JobResult{Job: job, Processed: 3, Sent: 2, Skipped: 1}, nil
}

type testServer struct {
	*Server
	tokens       *auth.JWTManager
	authStub     *stubAuth
	meetingsStub *stubMeetings
	regStub      *stubRegistrations
	member       *entities.User
	admin        *entities.User
}

func newTestServer(t *testing.T, trustVercel bool) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens := auth.NewJWTManager("0123456789abcdef0123456789abcdef", auth.SessionTTL)
	member := &entities.User{ID: uuid.New(), Email: "member@example.com", Name: "김민지", Role: entities.RoleMember}
	admin := &entities.User{ID: uuid.New(), Email: "admin@example.com", Name: "운영진", Role: entities.RoleAdmin}
	ts := &testServer{
		tokens: tokens,
		authStub: &stubAuth{
			users: map[uuid.UUID]*entities.User{member.ID: member, admin.ID: admin},
			token: func(u *entities.User) *input.Session {
				tok, exp, err := tokens.Issue(u)
				require.NoError(t, err)
				return &input.Session{Token: tok, ExpiresAt: exp, User: u}
			},
		},
		meetingsStub: &stubMeetings{},
		regStub:      &stubRegistrations{},
		member:       member,
		admin:        admin,
	}
	ts.Server = NewServer(Deps{
		Auth:            ts.authStub,
		Meetings:        ts.meetingsStub,
		Registrations:   ts.regStub,
		Policies:        stubPolicies{},
		Cron:            stubCron{},
		Tokens:          tokens,
		Translator:      i18n.NewTranslator("ko", zap.NewNop()),
		Logger:          zap.NewNop(),
		CronSecret:      testCronSecret,
		TrustVercelCron: trustVercel,
	})
	return ts
}

func (ts *testServer) do(method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	ts.Handler().ServeHTTP(w, req)
	return w
}

func (ts *testServer) bearer(t *testing.T, u *entities.User) map[string]string {
	tok, _, err := ts.tokens.Issue(u)
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + tok}
}

type errorReply struct {
	Success bool `json:"success"`
	Error   struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorReply {
	t.Helper()
	var out errorReply
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.False(t, out.Success)
	return out
}

func TestErrorEnvelopeIsLocalized(t *testing.T) {
	ts := newTestServer(t, false)

	w := ts.do(http.MethodGet, "/api/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	reply := decodeError(t, w)
	assert.Equal(t, 1001, reply.Error.Code)
	assert.Equal(t, "로그인이 필요합니다.", reply.Error.Message)

	w = ts.do(http.MethodGet, "/api/me", "", map[string]string{"Accept-Language": "en-US,en;q=0.9"})
	assert.Equal(t, "Please log in.", decodeError(t, w).Error.Message)
}

func TestUnknownErrorsBecomeInternal(t *testing.T) {
	ts := newTestServer(t, false)

	w := ts.do(http.MethodGet, "/api/meetings/"+uuid.NewString(), "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	reply := decodeError(t, w)
	assert.Equal(t, 9000, reply.Error.Code)
	assert.NotContains(t, reply.Error.Message, "connection reset")
}

func TestInvalidPathID(t *testing.T) {
	ts := newTestServer(t, false)

	w := ts.do(http.MethodGet, "/api/meetings/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 9001, decodeError(t, w).Error.Code)
}

func TestLoginSetsSessionCookie(t *testing.T) {
	ts := newTestServer(t, false)

	w := ts.do(http.MethodPost, "/api/auth/login", `{"email":"member@example.com","password":"wrong"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 1002, decodeError(t, w).Error.Code)

	w = ts.do(http.MethodPost, "/api/auth/login", `{"email":"member@example.com","password":"right"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, cookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	w = ts.do(http.MethodGet, "/api/me", "", map[string]string{"Cookie": cookieName + "=" + cookies[0].Value})
	require.Equal(t, http.StatusOK, w.Code)
	var reply struct {
		Success bool              `json:"success"`
		Data    input.ProfileView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reply))
	assert.True(t, reply.Success)
	assert.Equal(t, ts.member.ID, reply.Data.ID)
	assert.Equal(t, 2, reply.Data.BadgeCount)
}

func TestLogoutClearsCookie(t *testing.T) {
	ts := newTestServer(t, false)

	w := ts.do(http.MethodPost, "/api/auth/logout", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "", cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	ts := newTestServer(t, false)

	w := ts.do(http.MethodGet, "/api/admin/refund-policies", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(http.MethodGet, "/api/admin/refund-policies", "", ts.bearer(t, ts.member))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 1003, decodeError(t, w).Error.Code)

	w = ts.do(http.MethodGet, "/api/admin/refund-policies", "", ts.bearer(t, ts.admin))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "정기모임 기본")
}

func TestCronAuth(t *testing.T) {
	ts := newTestServer(t, false)

	w := ts.do(http.MethodGet, "/api/cron/onboarding", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 7001, decodeError(t, w).Error.Code)

	w = ts.do(http.MethodGet, "/api/cron/onboarding", "", map[string]string{"Authorization": "Bearer nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(http.MethodGet, "/api/cron/onboarding", "", map[string]string{"x-vercel-cron": "1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(http.MethodPost, "/api/cron/onboarding", "", map[string]string{"Authorization": "Bearer " + testCronSecret})
	require.Equal(t, http.StatusOK, w.Code)
	var reply struct {
		Data input.JobResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reply))
	assert.Equal(t, input.JobResult{Job: "onboarding", Processed: 3, Sent: 2, Skipped: 1}, reply.Data)

	w = ts.do(http.MethodGet, "/api/cron/nightly", "", map[string]string{"Authorization": "Bearer " + testCronSecret})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 7002, decodeError(t, w).Error.Code)
}

func TestCronTrustsPlatformHeaderWhenEnabled(t *testing.T) {
	ts := newTestServer(t, true)

	w := ts.do(http.MethodGet, "/api/cron/onboarding", "", map[string]string{"x-vercel-cron": "1"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPaymentWebhookAlwaysAnswers200(t *testing.T) {
	ts := newTestServer(t, false)

	w := ts.do(http.MethodPost, "/api/webhooks/payment", `{"imp_uid":"imp_1","merchant_uid":"m_1","status":"paid"}`, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)

	ts.regStub.completeErr = domain.ErrPaymentAmountMismatch
	w = ts.do(http.MethodPost, "/api/webhooks/payment", `{"imp_uid":"imp_1","merchant_uid":"m_1","status":"paid"}`, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 4002, decodeError(t, w).Error.Code)

	w = ts.do(http.MethodPost, "/api/webhooks/payment", `not json`, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 9001, decodeError(t, w).Error.Code)
}

func TestPaymentCompleteUsesErrorStatus(t *testing.T) {
	ts := newTestServer(t, false)
	ts.regStub.completeErr = domain.ErrPaymentAmountMismatch

	w := ts.do(http.MethodPost, "/api/payments/complete", `{"imp_uid":"imp_1"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 4002, decodeError(t, w).Error.Code)
}

func TestListMeetingsParsesFilter(t *testing.T) {
	ts := newTestServer(t, false)

	w := ts.do(http.MethodGet, "/api/meetings?status=open,full&type=regular&from=2026-10-01&to=2026-10-31&limit=500", "", ts.bearer(t, ts.member))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":[]}`, w.Body.String())

	f := ts.meetingsStub.lastFilter
	assert.Equal(t, []domain.DisplayStatus{domain.DisplayOpen, domain.DisplayFull}, f.Statuses)
	assert.Equal(t, []entities.MeetingType{entities.MeetingRegular}, f.Types)
	assert.Equal(t, "2026-10-01T00:00:00+09:00", f.From.Format(time.RFC3339))
	assert.Equal(t, "2026-11-01T00:00:00+09:00", f.To.Format(time.RFC3339))
	assert.Equal(t, maxPageSize, f.Limit)
	assert.Equal(t, ts.member.ID, ts.meetingsStub.lastViewer)

	w = ts.do(http.MethodGet, "/api/meetings", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uuid.Nil, ts.meetingsStub.lastViewer)
	assert.Equal(t, defaultPageSize, ts.meetingsStub.lastFilter.Limit)

	w = ts.do(http.MethodGet, "/api/meetings?status=soon", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportRosterServesXLSX(t *testing.T) {
	ts := newTestServer(t, false)

	w := ts.do(http.MethodGet, "/api/admin/meetings/"+uuid.NewString()+"/export", "", ts.bearer(t, ts.admin))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="roster_20261020.xlsx"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "xlsx", w.Body.String())
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, false)
	w := ts.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"status":"ok"}}`, w.Body.String())
}
