// Package api is the optional preview server: it exposes the generated
// output directory plus health and stats endpoints after a run.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer builds the HTTP engine serving the output directory with the
// health/stats endpoints on top.
func NewServer(handler *Handler, outputDir string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
			)
		},
	}))
	r.Use(gin.Recovery())

	r.GET("/health", handler.HealthCheck)
	r.GET("/stats", handler.GetStats)

	// Everything else is the generated static site.
	r.NoRoute(gin.WrapH(http.FileServer(http.Dir(outputDir))))

	return r
}
