package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/okhm/orbit/app/cache"
	"github.com/okhm/orbit/app/cfg"
	"github.com/okhm/orbit/app/run"
)

type Handler struct {
	store     *cache.Store
	report    *run.Report
	startedAt time.Time
}

func NewHandler(store *cache.Store, report *run.Report) *Handler {
	return &Handler{
		store:     store,
		report:    report,
		startedAt: time.Now(),
	}
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": cfg.Get().Version,
		"uptime":  time.Since(h.startedAt).Round(time.Second).String(),
	})
}

func (h *Handler) GetStats(c *gin.Context) {
	sources, entries, err := h.store.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read cache stats"})
		return
	}

	fetched, unchanged, failed, skipped := h.report.Counts()
	c.JSON(http.StatusOK, gin.H{
		"cached_sources": sources,
		"cached_entries": entries,
		"merged_entries": len(h.report.Merged),
		"last_run": gin.H{
			"duration":  h.report.Duration.Round(time.Millisecond).String(),
			"fetched":   fetched,
			"unchanged": unchanged,
			"failed":    failed,
			"skipped":   skipped,
		},
	})
}
