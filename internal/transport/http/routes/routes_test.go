package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap/zaptest"

	"github.com/arklim/social-platform-accounts/internal/core/domain"
	"github.com/arklim/social-platform-accounts/internal/core/port"
	"github.com/arklim/social-platform-accounts/internal/infra/config"
	"github.com/arklim/social-platform-accounts/internal/infra/kafka"
	"github.com/arklim/social-platform-accounts/internal/infra/security"
	"github.com/arklim/social-platform-accounts/internal/repository/memory"
	redisrepo "github.com/arklim/social-platform-accounts/internal/repository/redis"
	"github.com/arklim/social-platform-accounts/internal/transport/http/middleware"
	"github.com/arklim/social-platform-accounts/internal/usecase"
)

// captureNotifier records outgoing mail so tests can follow the links.
type captureNotifier struct {
	sent chan capturedMail
}

type capturedMail struct {
	Kind port.MailKind
	URL  string
}

func (n *captureNotifier) Send(_ context.Context, _ domain.Account, kind port.MailKind, url string) error {
	n.sent <- capturedMail{Kind: kind, URL: url}
	return nil
}

func (n *captureNotifier) wait(t *testing.T) capturedMail {
	t.Helper()

	select {
	case mail := <-n.sent:
		return mail
	case <-time.After(2 * time.Second):
		t.Fatal("no mail captured")
		return capturedMail{}
	}
}

type apiFixture struct {
	engine   *gin.Engine
	notifier *captureNotifier
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	log := zaptest.NewLogger(t)

	cfg := &config.AppConfig{}
	cfg.App.Env = "test"
	cfg.Frontend.URL = "https://app.example.com"
	cfg.Frontend.ActivationRoute = "activation"
	cfg.Frontend.ResetPasswordRoute = "reset_password"
	cfg.Redis.SessionTTL = time.Hour
	cfg.Auth.SecretKey = "test-secret"
	cfg.Auth.TokenExpiry = 72 * time.Hour
	cfg.Auth.MinPasswordLength = 8

	server := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	accounts := memory.NewAccountRepository()
	sessions := redisrepo.NewSessionStore(client, "test:session", cfg.Redis.SessionTTL)
	notifier := &captureNotifier{sent: make(chan capturedMail, 8)}
	publisher := kafka.NewStubPublisher(log)

	hasher, err := security.NewHasher(security.Argon2Config{
		Memory:      8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  8,
		KeyLength:   16,
	})
	if err != nil {
		t.Fatalf("NewHasher returned error: %v", err)
	}

	tokens := security.NewStateTokenGenerator(cfg.Auth.SecretKey, cfg.Auth.TokenExpiry)
	validator := security.DefaultPasswordValidator(cfg.Auth.MinPasswordLength)
	resolver := usecase.NewIdentityResolver(accounts, cfg.Auth.IdentityFields)
	links := usecase.NewLinkBuilder(cfg.Frontend)
	hooks := &usecase.Hooks{}

	authService, err := usecase.NewAuthService(accounts, resolver, hasher, sessions, hooks, log)
	if err != nil {
		t.Fatalf("NewAuthService returned error: %v", err)
	}
	registrationService := usecase.NewRegistrationService(
		accounts, resolver, hasher, validator, tokens, notifier, publisher, hooks, links, cfg.Auth, log,
	)
	resetService := usecase.NewPasswordResetService(
		accounts, resolver, hasher, validator, tokens, notifier, publisher, sessions, hooks, links, log,
	)

	engine := Register(Dependencies{
		Config: cfg,
		Logger: log,
		Services: ServiceSet{
			Auth:          authService,
			Registration:  registrationService,
			PasswordReset: resetService,
		},
	})

	return &apiFixture{engine: engine, notifier: notifier}
}

func (fx *apiFixture) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	fx.engine.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == middleware.SessionCookieName {
			return cookie
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

// mailLinkParams pulls the scrambled ident and token off the end of a link.
func mailLinkParams(t *testing.T, url string) (string, string) {
	t.Helper()

	parts := strings.Split(url, "/")
	if len(parts) < 2 {
		t.Fatalf("link %q has no ident/token segments", url)
	}
	return parts[len(parts)-2], parts[len(parts)-1]
}

func TestHealthz(t *testing.T) {
	fx := newAPIFixture(t)

	rec := fx.do(t, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRegisterActivateLoginRoundTrip(t *testing.T) {
	fx := newAPIFixture(t)

	rec := fx.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username": "jdoe",
		"email":    "jdoe@example.com",
		"password": "k9#mVx2!pQwL",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created struct {
		Account struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"account"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.Account.ID == "1" {
		t.Fatalf("expected scrambled account id, got the raw key")
	}

	// Login before activation is refused with the uniform code.
	rec = fx.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"ident":    "jdoe@example.com",
		"password": "k9#mVx2!pQwL",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 before activation, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), domain.CodeInvalidCredentials) {
		t.Fatalf("expected %s in body, got %s", domain.CodeInvalidCredentials, rec.Body.String())
	}

	mail := fx.notifier.wait(t)
	if mail.Kind != port.MailUserCreated {
		t.Fatalf("expected %s mail, got %s", port.MailUserCreated, mail.Kind)
	}
	ident, token := mailLinkParams(t, mail.URL)

	rec = fx.do(t, http.MethodPost, "/api/v1/auth/activate", map[string]string{
		"ident": ident,
		"token": token,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on activation, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = fx.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"ident":    "jdoe@example.com",
		"password": "k9#mVx2!pQwL",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on login, got %d: %s", rec.Code, rec.Body.String())
	}
	cookie := sessionCookie(t, rec)
	if !cookie.HttpOnly {
		t.Fatalf("expected HttpOnly session cookie")
	}

	rec = fx.do(t, http.MethodGet, "/api/v1/auth/me", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on /me, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "jdoe") {
		t.Fatalf("expected account payload, got %s", rec.Body.String())
	}

	rec = fx.do(t, http.MethodPost, "/api/v1/auth/logout", nil, cookie)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 on logout, got %d", rec.Code)
	}

	rec = fx.do(t, http.MethodGet, "/api/v1/auth/me", nil, cookie)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", rec.Code)
	}
}

func TestRegisterValidationErrors(t *testing.T) {
	fx := newAPIFixture(t)

	rec := fx.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username": "jdoe",
		"email":    "jdoe@example.com",
		"password": "123",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Errors map[string][]string `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Errors["password"]) == 0 {
		t.Fatalf("expected password violations, got %v", resp.Errors)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	fx := newAPIFixture(t)

	first := fx.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username": "first",
		"email":    "taken@example.com",
		"password": "k9#mVx2!pQwL",
	})
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", first.Code)
	}
	fx.notifier.wait(t)

	rec := fx.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username": "second",
		"email":    "TAKEN@example.com",
		"password": "k9#mVx2!pQwL",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), domain.UniqueCode("email")) {
		t.Fatalf("expected email_unique in body, got %s", rec.Body.String())
	}
}

func TestActivateWithBadLink(t *testing.T) {
	fx := newAPIFixture(t)

	rec := fx.do(t, http.MethodPost, "/api/v1/auth/activate", map[string]string{
		"ident": "not-an-id",
		"token": "zz-deadbeef",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), domain.CodeActivationLinkInvalid) {
		t.Fatalf("expected %s in body, got %s", domain.CodeActivationLinkInvalid, rec.Body.String())
	}
}

func TestPasswordResetFlow(t *testing.T) {
	fx := newAPIFixture(t)

	// Unknown address answers exactly like a known one.
	rec := fx.do(t, http.MethodPost, "/api/v1/auth/send_pw_reset_email", map[string]string{
		"email": "ghost@example.com",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for unknown address, got %d", rec.Code)
	}
	unknownBody := rec.Body.String()

	rec = fx.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username": "jdoe",
		"email":    "jdoe@example.com",
		"password": "old-Password-1!",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	fx.notifier.wait(t) // activation mail

	rec = fx.do(t, http.MethodPost, "/api/v1/auth/send_pw_reset_email", map[string]string{
		"email": "jdoe@example.com",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for known address, got %d", rec.Code)
	}
	if rec.Body.String() != unknownBody {
		t.Fatalf("expected identical response for known and unknown addresses")
	}

	mail := fx.notifier.wait(t)
	if mail.Kind != port.MailResetPassword {
		t.Fatalf("expected %s mail, got %s", port.MailResetPassword, mail.Kind)
	}
	ident, token := mailLinkParams(t, mail.URL)

	rec = fx.do(t, http.MethodPost, "/api/v1/auth/reset_password", map[string]string{
		"ident":    ident,
		"token":    token,
		"password": "n3w-Secret-pass!",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on reset, got %d: %s", rec.Code, rec.Body.String())
	}

	// The reset also activated the never-activated account.
	rec = fx.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"ident":    "jdoe@example.com",
		"password": "n3w-Secret-pass!",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected login with new password to succeed, got %d: %s", rec.Code, rec.Body.String())
	}

	// The old password is gone.
	rec = fx.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"ident":    "jdoe@example.com",
		"password": "old-Password-1!",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected old password to fail, got %d", rec.Code)
	}
}

func TestResetPasswordBadLink(t *testing.T) {
	fx := newAPIFixture(t)

	rec := fx.do(t, http.MethodPost, "/api/v1/auth/reset_password", map[string]string{
		"ident":    fmt.Sprintf("%d", 999999),
		"token":    "zz-deadbeef",
		"password": "n3w-Secret-pass!",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), domain.CodeResetPasswordLinkInval) {
		t.Fatalf("expected %s in body, got %s", domain.CodeResetPasswordLinkInval, rec.Body.String())
	}
}
