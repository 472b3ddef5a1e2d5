package admin

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/nodelet/internal/observability"
)

// Status is the agent state snapshot served at /status.
type Status struct {
	NodeID            string  `json:"node_id"`
	NodeAddress       string  `json:"node_address"`
	SocketPath        string  `json:"socket_path"`
	NodeManagerPort   int     `json:"node_manager_port"`
	ObjectManagerPort int     `json:"object_manager_port"`
	Registered        bool    `json:"registered"`
	Workers           int     `json:"workers"`
	Peers             int     `json:"peers"`
	ObjectClients     int     `json:"object_clients"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
}

// Server is the node agent's admin HTTP surface: health, readiness,
// status snapshot, and prometheus metrics. It never carries protocol
// traffic; the framed endpoints live in the transport acceptors.
type Server struct {
	nodeLabel string
	addr      string
	router    *gin.Engine
	status    func() Status
	appeared  time.Time
}

func New(nodeLabel, addr string, corsOrigins []string, status func() Status) *Server {
	observability.RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger, nodeLabel))
	r.Use(observability.RequestMetricsMiddleware(nodeLabel))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(corsOrigins),
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{
		nodeLabel: nodeLabel,
		addr:      addr,
		router:    r,
		status:    status,
		appeared:  time.Now(),
	}
	s.registerRoutes()
	return s
}

// Router exposes the gin engine for in-process test requests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"uptime": time.Since(s.appeared).String(),
			"node":   s.nodeLabel,
		})
	})

	s.router.GET("/ready", func(c *gin.Context) {
		st := s.status()
		code := http.StatusOK
		if !st.Registered {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"ready":  st.Registered,
			"uptime": time.Since(s.appeared).String(),
			"node":   s.nodeLabel,
		})
	})

	s.router.GET("/status", func(c *gin.Context) {
		st := s.status()
		st.UptimeSeconds = time.Since(s.appeared).Seconds()
		c.JSON(http.StatusOK, st)
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Run serves the admin surface until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
