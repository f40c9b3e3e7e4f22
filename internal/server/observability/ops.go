package observability

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/safecircle/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger reports whether the store is reachable; *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// OpsServer serves /metrics and /healthz on a separate port from gRPC.
type OpsServer struct {
	address string
	logger  logging.Logger
	srv     *http.Server
}

func NewOpsServer(address string, l logging.Logger, m *Metrics, db Pinger) *OpsServer {
	return &OpsServer{
		address: address,
		logger:  l.With("module", "ops_server"),
		srv: &http.Server{
			Addr:              address,
			Handler:           NewRouter(m, db),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// NewRouter builds the ops routes.
func NewRouter(m *Metrics, db Pinger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	router.GET("/healthz", healthCheck(db))
	return router
}

func healthCheck(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *OpsServer) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping ops server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting ops server", "address", s.address)

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
