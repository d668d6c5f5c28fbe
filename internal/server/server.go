// Package server implements the schedule service: the HTTP API the editor
// talks to, the schedule store, the audit trail, and the trigger loop.
package server

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/hertz/pkg/app"
	hzServer "github.com/cloudwego/hertz/pkg/app/server"
	hzConfig "github.com/cloudwego/hertz/pkg/common/config"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	hertzprom "github.com/hertz-contrib/monitor-prometheus"

	"github.com/tracksync/tracksync/internal/config"
	"github.com/tracksync/tracksync/internal/notify"
	"github.com/tracksync/tracksync/internal/pkg/logs"
	"github.com/tracksync/tracksync/internal/pkg/prometheus"
	"github.com/tracksync/tracksync/internal/schedule"
)

// Server bundles the HTTP API, the schedule store, the audit log, and the
// trigger loop into one runnable unit.
type Server struct {
	hz      *hzServer.Hertz
	store   *Store
	audit   *AuditLog
	trigger *Trigger
	token   string
}

// New builds the service from config. run executes one sync; when nil a
// logging placeholder is used so the trigger loop stays observable without a
// sync engine attached.
func New(cfg config.ServerConfig, notifier notify.Notifier, run TriggerFunc) *Server {
	if run == nil {
		run = func(ctx context.Context) (TriggerResult, error) {
			logs.CtxWarn(ctx, "[server] no sync executor wired, trigger is a no-op")
			return TriggerResult{}, nil
		}
	}

	opts := []hzConfig.Option{
		hzServer.WithHostPorts(cfg.Bind),
		hzServer.WithReadTimeout(60 * time.Second),
		hzServer.WithWriteTimeout(60 * time.Second),
		hzServer.WithExitWaitTime(5 * time.Second),
	}
	if cfg.MetricsBind != "" {
		opts = append(opts, hzServer.WithTracer(hertzprom.NewServerTracer(
			cfg.MetricsBind, "/metrics",
			hertzprom.WithRegistry(prometheus.GetRegistry()),
			hertzprom.WithEnableGoCollector(true),
		)))
	}

	store := NewStore(cfg.StorePath)
	audit := NewAuditLog(cfg.AuditPath)

	s := &Server{
		hz:      hzServer.Default(opts...),
		store:   store,
		audit:   audit,
		trigger: NewTrigger(store, run, notifier, audit),
		token:   cfg.Token,
	}
	s.routes()
	return s
}

// Start loads the persisted schedule, starts the trigger loop, and begins
// serving.
func (s *Server) Start(ctx context.Context) error {
	if err := s.store.Load(); err != nil {
		return fmt.Errorf("load schedule store: %w", err)
	}
	s.trigger.Start(ctx)
	go s.hz.Spin()
	return nil
}

// Stop shuts down the trigger loop and the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	s.trigger.Stop(ctx)
	if err := s.hz.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

func (s *Server) routes() {
	s.hz.GET("/health", func(ctx context.Context, c *app.RequestContext) {
		c.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})

	v1 := s.hz.Group("/api/v1", s.auth())
	v1.GET("/schedule/", s.handleGetSchedule)
	v1.PUT("/schedule/", s.handleUpdateSchedule)
}

// auth checks the static bearer token when one is configured. Real operator
// authentication lives in front of this service.
func (s *Server) auth() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		if s.token == "" {
			c.Next(ctx)
			return
		}
		got := strings.TrimPrefix(string(c.GetHeader("Authorization")), "Bearer ")
		if got != s.token {
			c.JSON(consts.StatusUnauthorized, utils.H{"error": "invalid or missing token"})
			c.Abort()
			return
		}
		c.Next(ctx)
	}
}

func (s *Server) handleGetSchedule(ctx context.Context, c *app.RequestContext) {
	cfg, created, err := s.store.EnsureDefault(time.Now().UTC())
	if err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}
	if created {
		logs.CtxInfo(ctx, "[server] created default schedule configuration")
	}
	s.respondConfig(ctx, c, cfg)
}

func (s *Server) handleUpdateSchedule(ctx context.Context, c *app.RequestContext) {
	body, err := c.Body()
	if err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "cannot read request body"})
		return
	}

	var upd schedule.Update
	if err := sonic.Unmarshal(body, &upd); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "invalid schedule payload"})
		return
	}
	if upd.Timezone == "" {
		upd.Timezone = "UTC"
	}

	if err := schedule.ValidateCron(upd.Cron); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": err.Error()})
		return
	}
	if err := validateExpression(upd.Cron, upd.Timezone); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": err.Error()})
		return
	}
	if !upd.Concurrency.Valid() {
		c.JSON(consts.StatusBadRequest, utils.H{"error": fmt.Sprintf("concurrency must be %q or %q", schedule.ConcurrencySkip, schedule.ConcurrencyQueue)})
		return
	}

	old, ok := s.store.Get()
	if !ok {
		c.JSON(consts.StatusNotFound, utils.H{"error": "schedule not initialized; fetch it first"})
		return
	}

	cfg, err := s.store.Replace(upd, time.Now().UTC())
	if err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}

	if auditErr := s.audit.Record("schedule_updated", map[string]any{
		"changes": changeSet(old, upd),
	}); auditErr != nil {
		logs.CtxWarn(ctx, "[server] audit record failed: %v", auditErr)
	}
	prometheus.ScheduleUpdates.Inc()

	s.trigger.Reload()
	logs.CtxInfo(ctx, "[server] schedule updated: cron=%q enabled=%v", cfg.Cron, cfg.Enabled)

	s.respondConfig(ctx, c, cfg)
}

// respondConfig fills next_runs (only for enabled schedules) and writes the
// canonical view.
func (s *Server) respondConfig(ctx context.Context, c *app.RequestContext, cfg *schedule.Config) {
	cfg.NextRuns = []string{}
	if cfg.Enabled {
		runs, err := nextRuns(cfg.Cron, cfg.Timezone, nextRunCount, time.Now())
		if err != nil {
			logs.CtxWarn(ctx, "[server] compute next runs failed: %v", err)
		} else {
			cfg.NextRuns = runs
		}
	}
	c.JSON(consts.StatusOK, cfg)
}
