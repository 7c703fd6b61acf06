package trigger

import (
	"context"
	"net/http"
	"time"

	"github.com/foxseedlab/meetsync/internal/scheduler"
	"github.com/gin-gonic/gin"
)

// Engine is the subset of the orchestrator the trigger surface needs.
type Engine interface {
	Tick(ctx context.Context) scheduler.Summary
	ForcePoll(ctx context.Context, meetingID string) error
}

// Server exposes the on-demand sync surface: a manual tick and a forced poll
// of a single meeting. The cron cadence is the primary driver; this exists
// for operator-triggered re-sync.
type Server struct {
	engine      *gin.Engine
	addr        string
	tickTimeout time.Duration
}

func NewServer(addr string, eng Engine, tickTimeout time.Duration) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{engine: router, addr: addr, tickTimeout: tickTimeout}

	router.POST("/tick", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), s.tickTimeout)
		defer cancel()
		c.JSON(http.StatusOK, eng.Tick(ctx))
	})
	router.POST("/meetings/:id/poll", func(c *gin.Context) {
		meetingID := c.Param("id")
		if err := eng.ForcePoll(c.Request.Context(), meetingID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), s.tickTimeout)
		defer cancel()
		c.JSON(http.StatusOK, eng.Tick(ctx))
	})

	return s
}

func (s *Server) Run() error {
	return s.engine.Run(s.addr)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}
