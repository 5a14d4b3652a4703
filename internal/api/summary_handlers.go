package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"news-assistant/internal/assistant"
	"news-assistant/internal/auth"
	"news-assistant/internal/config"
	"news-assistant/internal/history"
	"news-assistant/internal/summarizer"
)

type SummarizeRequest struct {
	Topic    string `json:"topic" form:"topic"`
	PageSize string `json:"page_size" form:"page_size"`
}

// statusForError maps a summarize failure onto an HTTP status
func statusForError(err error) int {
	switch {
	case errors.Is(err, summarizer.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, summarizer.ErrRunInProgress):
		return http.StatusConflict
	case errors.Is(err, assistant.ErrRunTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	default:
		return http.StatusBadGateway
	}
}

func formPage(cfg *config.Config, req SummarizeRequest) gin.H {
	return gin.H{
		"subpath":  cfg.Server.Subpath,
		"topic":    req.Topic,
		"pageSize": req.PageSize,
	}
}

// GET /
func FormHandler(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, "index.html", formPage(cfg, SummarizeRequest{PageSize: cfg.News.DefaultPageSize}))
	}
}

// POST /summarize
func FormSubmitHandler(cfg *config.Config, svc Summarizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SummarizeRequest
		if err := c.ShouldBind(&req); err != nil {
			page := formPage(cfg, req)
			page["error"] = "Invalid form submission"
			c.HTML(http.StatusBadRequest, "index.html", page)
			return
		}
		page := formPage(cfg, req)
		if svc == nil {
			page["error"] = "Summarizer is not available"
			c.HTML(http.StatusServiceUnavailable, "index.html", page)
			return
		}

		res, err := svc.Summarize(c.Request.Context(), summarizer.Request{
			SessionID: auth.SessionID(c),
			Topic:     req.Topic,
			PageSize:  req.PageSize,
		}, nil)
		if err != nil {
			log.Printf("[API] Form summarize failed: %v", err)
			page["error"] = err.Error()
			c.HTML(statusForError(err), "index.html", page)
			return
		}
		page["summary"] = res.Summary
		c.HTML(http.StatusOK, "index.html", page)
	}
}

// POST /api/summaries
func CreateSummaryHandler(svc Summarizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if svc == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": gin.H{"message": "Summarizer is not available"}})
			return
		}
		var req SummarizeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid JSON body"}})
			return
		}
		res, err := svc.Summarize(c.Request.Context(), summarizer.Request{
			SessionID: auth.SessionID(c),
			Topic:     req.Topic,
			PageSize:  req.PageSize,
		}, nil)
		if err != nil {
			c.JSON(statusForError(err), gin.H{"error": gin.H{"message": err.Error()}})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"id":           res.ID,
			"summary":      res.Summary,
			"run_id":       res.RunID,
			"thread_id":    res.ThreadID,
			"assistant_id": res.AssistantID,
			"tool_calls":   res.ToolCalls,
			"duration_ms":  res.Duration.Milliseconds(),
		})
	}
}

// GET /api/summaries?limit=N
func ListSummariesHandler(store HistoryStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": "History is disabled"}})
			return
		}
		limit := 20
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 || n > 100 {
				c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "limit must be between 1 and 100"}})
				return
			}
			limit = n
		}
		list, err := store.ListBySession(c.Request.Context(), auth.SessionID(c), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Failed to list summaries"}})
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

func summaryID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid summary id"}})
		return 0, false
	}
	return uint(id), true
}

// GET /api/summaries/:id
func GetSummaryHandler(store HistoryStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": "History is disabled"}})
			return
		}
		id, ok := summaryID(c)
		if !ok {
			return
		}
		s, err := store.Get(c.Request.Context(), auth.SessionID(c), id)
		if errors.Is(err, history.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": "Summary not found"}})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Failed to load summary"}})
			return
		}
		c.JSON(http.StatusOK, s)
	}
}

// DELETE /api/summaries/:id
func DeleteSummaryHandler(store HistoryStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": "History is disabled"}})
			return
		}
		id, ok := summaryID(c)
		if !ok {
			return
		}
		err := store.Delete(c.Request.Context(), auth.SessionID(c), id)
		if errors.Is(err, history.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": "Summary not found"}})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Failed to delete summary"}})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// DELETE /api/session drops the caller's thread. History is kept.
func ForgetSessionHandler(sessions SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sessions == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": gin.H{"message": "Sessions are not available"}})
			return
		}
		if err := sessions.Forget(c.Request.Context(), auth.SessionID(c)); err != nil {
			log.Printf("[API] Forget session failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Failed to reset session"}})
			return
		}
		c.Status(http.StatusNoContent)
	}
}
