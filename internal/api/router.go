package api

import (
	"context"
	"embed"
	"html/template"

	"github.com/gin-gonic/gin"
	"news-assistant/internal/assistant"
	"news-assistant/internal/auth"
	"news-assistant/internal/config"
	"news-assistant/internal/history"
	"news-assistant/internal/news"
	"news-assistant/internal/summarizer"
)

//go:embed templates/*.html
var templateFS embed.FS

// Summarizer runs one summarize interaction for a session
type Summarizer interface {
	Summarize(ctx context.Context, req summarizer.Request, observe assistant.StatusObserver) (*summarizer.Result, error)
}

// HistoryStore is the session-scoped view of recorded summaries
type HistoryStore interface {
	ListBySession(ctx context.Context, sessionID string, limit int) ([]history.Summary, error)
	Get(ctx context.Context, sessionID string, id uint) (*history.Summary, error)
	Delete(ctx context.Context, sessionID string, id uint) error
}

// SessionStore reports and drops conversation sessions
type SessionStore interface {
	Count(ctx context.Context) (int, error)
	Forget(ctx context.Context, id string) error
}

// Services are the backends the routes call into. Any field may be nil.
type Services struct {
	Summarizer Summarizer
	History    HistoryStore
	Breaker    *news.Breaker
	Sessions   SessionStore
}

func SetupRouter(cfg *config.Config, svc *Services) *gin.Engine {
	if svc == nil {
		svc = &Services{}
	}
	r := gin.Default()
	subpath := cfg.Server.Subpath // e.g. "/news", always starts with '/' when set

	r.SetHTMLTemplate(template.Must(template.ParseFS(templateFS, "templates/*.html")))

	group := r.Group(subpath)
	{
		group.GET("/health", healthHandler(svc))
		group.GET("/config", configHandler(cfg))

		sessions := group.Group("", auth.SessionMiddleware(cfg))

		// Form page
		sessions.GET("/", FormHandler(cfg))
		sessions.POST("/summarize", FormSubmitHandler(cfg, svc.Summarizer))

		// JSON API
		sessions.POST("/api/summaries", CreateSummaryHandler(svc.Summarizer))
		sessions.GET("/api/summaries", ListSummariesHandler(svc.History))
		sessions.GET("/api/summaries/:id", GetSummaryHandler(svc.History))
		sessions.DELETE("/api/summaries/:id", DeleteSummaryHandler(svc.History))
		sessions.DELETE("/api/session", ForgetSessionHandler(svc.Sessions))

		// Progress stream
		sessions.GET("/ws/summarize", WSSummarizeHandler(svc.Summarizer))
	}
	return r
}
