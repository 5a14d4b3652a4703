package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"news-assistant/internal/config"

	"github.com/gin-gonic/gin"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.SessionSecret = "secret"
	cfg.Server.CookieName = "news_session"
	cfg.Session.TTLMinutes = 60
	return cfg
}

func setupRouter(cfg *config.Config, seen *string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SessionMiddleware(cfg))
	r.GET("/test", func(c *gin.Context) {
		*seen = SessionID(c)
		c.String(200, "OK")
	})
	return r
}

func sessionCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range w.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func TestSessionMiddleware_IssuesNewSession(t *testing.T) {
	cfg := testConfig()
	var seen string
	r := setupRouter(cfg, &seen)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if seen == "" {
		t.Fatalf("no session id attached")
	}
	ck := sessionCookie(w, cfg.Server.CookieName)
	if ck == nil || !ck.HttpOnly {
		t.Fatalf("expected http-only session cookie, got %+v", ck)
	}
	claims, err := ParseJWT(cfg.Server.SessionSecret, ck.Value)
	if err != nil || claims.SessionID != seen {
		t.Errorf("cookie does not carry session id: %v %+v", err, claims)
	}
}

func TestSessionMiddleware_ReusesValidCookie(t *testing.T) {
	cfg := testConfig()
	token, _ := GenerateJWT(cfg.Server.SessionSecret, "existing-session", time.Hour)
	var seen string
	r := setupRouter(cfg, &seen)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", nil)
	req.AddCookie(&http.Cookie{Name: cfg.Server.CookieName, Value: token})
	r.ServeHTTP(w, req)

	if seen != "existing-session" {
		t.Errorf("expected existing session, got %s", seen)
	}
	if sessionCookie(w, cfg.Server.CookieName) != nil {
		t.Errorf("fresh cookie should not be re-issued")
	}
}

func TestSessionMiddleware_RefreshesAgingCookie(t *testing.T) {
	cfg := testConfig()
	token, _ := GenerateJWT(cfg.Server.SessionSecret, "aging-session", 10*time.Minute)
	var seen string
	r := setupRouter(cfg, &seen)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", nil)
	req.AddCookie(&http.Cookie{Name: cfg.Server.CookieName, Value: token})
	r.ServeHTTP(w, req)

	if seen != "aging-session" {
		t.Errorf("expected aging session to be kept, got %s", seen)
	}
	if sessionCookie(w, cfg.Server.CookieName) == nil {
		t.Errorf("expected cookie to be refreshed")
	}
}

func TestSessionMiddleware_ForgedCookie(t *testing.T) {
	cfg := testConfig()
	forged, _ := GenerateJWT("other-secret", "victim-session", time.Hour)
	var seen string
	r := setupRouter(cfg, &seen)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", nil)
	req.AddCookie(&http.Cookie{Name: cfg.Server.CookieName, Value: forged})
	r.ServeHTTP(w, req)

	if seen == "" || seen == "victim-session" {
		t.Errorf("forged cookie must start a new session, got %q", seen)
	}
}
