// Package dashboard exposes the engine's snapshot over a JSON API together
// with recent logs and metric events.
package dashboard

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	appconfig "salesflow/config"
	"salesflow/logger"
	"salesflow/metrics"
	"salesflow/snapshot"
	"salesflow/stats"
)

// Server hosts the Gin-powered API over the snapshot store.
type Server struct {
	cfg           appconfig.DashboardConfig
	log           *logger.Log
	store         *snapshot.Store
	metricStore   *metricStore
	logStore      *logStore
	metricHandler metrics.MetricHandlerID
	httpServer    *http.Server
}

// NewServer constructs a dashboard server when the dashboard feature is enabled.
// When the dashboard is disabled the returned server will be nil.
func NewServer(cfg appconfig.DashboardConfig, store *snapshot.Store, log *logger.Log) (*Server, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	cfg.Address = normalizeAddress(cfg.Address)

	if cfg.LogHistory <= 0 {
		cfg.LogHistory = 200
	}
	if cfg.MetricsHistory <= 0 {
		cfg.MetricsHistory = 200
	}

	metricStore := newMetricStore(cfg.MetricsHistory)
	handlerID := metrics.RegisterMetricHandler(metricStore.handle)

	logStore := newLogStore(cfg.LogHistory)
	log.AddHook(logStore)

	return &Server{
		cfg:           cfg,
		log:           log,
		store:         store,
		metricStore:   metricStore,
		logStore:      logStore,
		metricHandler: handlerID,
	}, nil
}

// Run starts the dashboard HTTP server and blocks until the provided context is
// cancelled or the underlying HTTP server exits with an error.
func (s *Server) Run(ctx context.Context) error {
	if s == nil {
		return nil
	}

	defer s.cleanup()

	s.httpServer = &http.Server{
		Addr:    s.cfg.Address,
		Handler: s.buildRouter(),
	}

	s.log.WithComponent("dashboard").WithFields(logger.Fields{
		"address": s.cfg.Address,
	}).Info("dashboard listening")

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		if err == nil {
			return nil
		}
		return err
	}
}

func (s *Server) cleanup() {
	metrics.UnregisterMetricHandler(s.metricHandler)
	if s.logStore != nil {
		s.logStore.close()
	}
}

// Address reports the network address the dashboard server listens on.
func (s *Server) Address() string {
	if s == nil {
		return ""
	}
	return s.cfg.Address
}

func (s *Server) buildRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	_ = router.SetTrustedProxies(nil)

	router.GET("/api/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.store.Status())
	})

	router.GET("/api/summary", func(c *gin.Context) {
		snap, ok := s.currentSnapshot(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"runId":               snap.RunID,
			"generatedAt":         snap.GeneratedAt.Format(time.RFC3339Nano),
			"totalRevenue":        snap.TotalRevenue,
			"netRevenue":          snap.NetRevenue,
			"totalOrders":         snap.TotalOrders,
			"clients":             len(snap.Clients),
			"agents":              len(snap.Agents),
			"topBrands":           snap.TopBrands,
			"topArticles":         snap.TopArticles,
			"distributionMobile":  snap.DistributionMobile,
			"distributionDesktop": snap.DistributionDesktop,
			"monthly":             snap.Monthly,
			"rowsTotal":           snap.RowsTotal,
			"rowsSkipped":         snap.RowsSkipped,
		})
	})

	router.GET("/api/clients", func(c *gin.Context) {
		snap, ok := s.currentSnapshot(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"clients": snap.Clients})
	})

	router.GET("/api/clients/:id", func(c *gin.Context) {
		snap, ok := s.currentSnapshot(c)
		if !ok {
			return
		}
		client := snap.Client(c.Param("id"))
		if client == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "client not found"})
			return
		}
		c.JSON(http.StatusOK, client)
	})

	router.GET("/api/clients/:id/comparative", func(c *gin.Context) {
		snap, ok := s.currentSnapshot(c)
		if !ok {
			return
		}
		client := snap.Client(c.Param("id"))
		if client == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "client not found"})
			return
		}

		window := stats.WindowAllTime
		if c.Query("window") == "month" {
			window = stats.WindowThisMonth
		}

		// The peer group is the other clients managed by the same agent.
		peers := snap.Clients
		if agent := snap.Agent(client.AgentID); agent != nil {
			peers = agent.Clients
		}
		c.JSON(http.StatusOK, stats.CompareToPeers(client, peers, window, time.Now().UTC()))
	})

	router.GET("/api/comparative", func(c *gin.Context) {
		snap, ok := s.currentSnapshot(c)
		if !ok {
			return
		}
		now := time.Now().UTC()

		if id := c.Query("client"); id != "" {
			client := snap.Client(id)
			if client == nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "client not found"})
				return
			}
			peers := snap.Clients
			if agent := snap.Agent(client.AgentID); agent != nil {
				peers = agent.Clients
			}
			c.JSON(http.StatusOK, stats.ClientReport(client, peers, now))
			return
		}

		if id := c.Query("agent"); id != "" {
			agent := snap.Agent(id)
			if agent == nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "agent not found"})
				return
			}
			c.JSON(http.StatusOK, stats.AgentReport(agent, snap.Agents, now))
			return
		}

		c.JSON(http.StatusBadRequest, gin.H{"error": "client or agent query parameter required"})
	})

	router.GET("/api/agents", func(c *gin.Context) {
		snap, ok := s.currentSnapshot(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"agents": snap.Agents})
	})

	router.GET("/api/agents/:id/summary", func(c *gin.Context) {
		snap, ok := s.currentSnapshot(c)
		if !ok {
			return
		}
		agent := snap.Agent(c.Param("id"))
		if agent == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "agent not found"})
			return
		}
		movements := stats.AllMovements(agent.Clients)
		c.JSON(http.StatusOK, gin.H{
			"id":           agent.ID,
			"name":         agent.Name,
			"clients":      len(agent.Clients),
			"totalRevenue": stats.TotalRevenue(agent.Clients),
			"netRevenue":   stats.NetRevenue(agent.Clients),
			"totalOrders":  stats.TotalOrders(agent.Clients),
			"topBrands":    stats.TopBrands(movements, nil, 10),
			"monthly":      stats.Monthly(agent.Clients),
			"visits":       len(agent.Visits),
			"promos":       len(agent.Promos),
			"alerts":       len(agent.Alerts),
		})
	})

	router.GET("/api/metrics", func(c *gin.Context) {
		metricsSnapshot := s.metricStore.snapshot()
		payload := make([]gin.H, 0, len(metricsSnapshot))
		for _, m := range metricsSnapshot {
			payload = append(payload, gin.H{
				"timestamp": m.Timestamp.Format(time.RFC3339Nano),
				"component": m.Component,
				"name":      m.Name,
				"value":     m.Value,
				"type":      m.Type,
				"fields":    m.Fields,
			})
		}
		c.JSON(http.StatusOK, gin.H{"metrics": payload})
	})

	router.GET("/api/logs", func(c *gin.Context) {
		logsSnapshot := s.logStore.snapshot()
		payload := make([]gin.H, 0, len(logsSnapshot))
		for _, l := range logsSnapshot {
			payload = append(payload, gin.H{
				"timestamp": l.Timestamp.Format(time.RFC3339Nano),
				"level":     l.Level,
				"component": l.Component,
				"message":   l.Message,
				"fields":    l.Fields,
			})
		}
		c.JSON(http.StatusOK, gin.H{"logs": payload})
	})

	return router
}

// currentSnapshot fetches the last good snapshot or answers 503 when the
// first refresh has not completed yet.
func (s *Server) currentSnapshot(c *gin.Context) (*snapshot.Snapshot, bool) {
	snap := s.store.Current()
	if snap == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no snapshot available yet"})
		return nil, false
	}
	return snap, true
}

func normalizeAddress(addr string) string {
	addr = strings.TrimSpace(addr)

	if addr == "" {
		return "0.0.0.0:8080"
	}

	if strings.Contains(addr, "://") {
		if parsed, err := url.Parse(addr); err == nil {
			if host := parsed.Host; host != "" {
				addr = host
			} else if parsed.Opaque != "" {
				addr = parsed.Opaque
			}
		}
	}

	if strings.HasPrefix(addr, ":") {
		if len(addr) > 1 && addr[1] >= '0' && addr[1] <= '9' {
			return "0.0.0.0" + addr
		}
	}

	host, port, err := net.SplitHostPort(addr)
	if err == nil {
		if host == "" || host == "*" {
			host = "0.0.0.0"
		}
		if port == "" {
			port = "8080"
		}
		return net.JoinHostPort(host, port)
	}

	if ip := net.ParseIP(addr); ip != nil {
		return net.JoinHostPort(addr, "8080")
	}

	if !strings.Contains(addr, ":") {
		return net.JoinHostPort(addr, "8080")
	}

	return addr
}
