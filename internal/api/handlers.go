package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"news-assistant/internal/config"
	"news-assistant/internal/summarizer"
)

type statsReporter interface {
	GetStats() summarizer.Stats
}

// GET /health
func healthHandler(svc *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{
			"status": "ok",
		}
		if s, ok := svc.Summarizer.(statsReporter); ok {
			body["runs"] = s.GetStats()
		}
		if svc.Breaker != nil {
			body["news_breaker"] = svc.Breaker.Stats()
		}
		if svc.Sessions != nil {
			if n, err := svc.Sessions.Count(c.Request.Context()); err != nil {
				log.Printf("[API] Session count failed: %v", err)
			} else {
				body["sessions"] = n
			}
		}
		c.JSON(http.StatusOK, body)
	}
}

// GET /config
func configHandler(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Only return non-sensitive config fields
		c.JSON(http.StatusOK, gin.H{
			"server": gin.H{
				"host":    cfg.Server.Host,
				"port":    cfg.Server.Port,
				"subpath": cfg.Server.Subpath,
			},
			"news": gin.H{
				"base_url":          cfg.News.BaseURL,
				"default_page_size": cfg.News.DefaultPageSize,
				"enrich_content":    cfg.News.EnrichContent,
			},
			"assistant": gin.H{
				"model":                cfg.Assistant.Model,
				"name":                 cfg.Assistant.Name,
				"poll_interval_millis": cfg.Assistant.PollIntervalMillis,
				"run_timeout_seconds":  cfg.Assistant.RunTimeoutSeconds,
				"max_concurrent_runs":  cfg.Assistant.MaxConcurrentRuns,
			},
			"session": gin.H{
				"store":       cfg.Session.Store,
				"ttl_minutes": cfg.Session.TTLMinutes,
			},
			"history": gin.H{
				"enabled":        cfg.History.Enabled,
				"retention_days": cfg.History.RetentionDays,
			},
		})
	}
}
