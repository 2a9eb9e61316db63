// Package dashboard serves a read-only JSON status surface for the daemon:
// health, task state, and the activity feed. It renders nothing — the
// kanban UI lives elsewhere.
package dashboard

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/fennwick/taskboard/internal/activity"
)

// StartOpts holds configuration for the status server.
type StartOpts struct {
	DB           *gorm.DB
	Addr         string
	InstanceID   string
	ClaimTimeout time.Duration
	Out          io.Writer
}

// Start launches the status HTTP server. It blocks until ctx is cancelled,
// then shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.DB == nil {
		return fmt.Errorf("dashboard: db is required")
	}
	if opts.Addr == "" {
		opts.Addr = "127.0.0.1:8321"
	}

	router := NewRouter(opts.DB, opts.InstanceID, opts.ClaimTimeout)

	srv := &http.Server{
		Addr:    opts.Addr,
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Status server running at http://%s\n", opts.Addr)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}

// NewRouter builds the Gin router with all status routes registered. The
// claim timeout drives the lease_expired field on task detail.
func NewRouter(gdb *gorm.DB, instanceID string, claimTimeout time.Duration) *gin.Engine {
	if claimTimeout <= 0 {
		claimTimeout = time.Hour
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	registerRoutes(router, gdb, activity.NewEmitter(gdb, instanceID), instanceID, claimTimeout)
	return router
}
