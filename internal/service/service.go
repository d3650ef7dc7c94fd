//go:build windows

// Package service wires the engine, control plane, metrics, and
// notifications into the host process.
package service

import (
	"context"
	"fmt"
	"time"

	"happycat-dpi/internal/core"
	"happycat-dpi/internal/injector"
	"happycat-dpi/internal/ipc"
	"happycat-dpi/internal/metrics"
)

// Deps holds dependencies for creating a Service.
type Deps struct {
	Config    *core.ConfigManager
	Bus       *core.EventBus
	Engine    *injector.Engine
	Collector *metrics.Collector
}

// Service is the host-side unit around the engine: the named-pipe control
// plane, the optional metrics listener, and toast notifications.
type Service struct {
	cfg     *core.ConfigManager
	bus     *core.EventBus
	engine  *injector.Engine
	ipc     *ipc.Server
	metrics *metrics.Server
}

// New assembles a service from its parts.
func New(deps Deps) *Service {
	s := &Service{
		cfg:    deps.Config,
		bus:    deps.Bus,
		engine: deps.Engine,
		ipc:    ipc.NewServer(ipc.NewDispatcher(deps.Engine)),
	}

	cfg := deps.Config.Get()
	if cfg.Metrics.Enabled && deps.Collector != nil {
		s.metrics = metrics.NewServer(cfg.Metrics.Listen, deps.Collector)
	}
	if cfg.Notifications.Enabled {
		NewNotifier().Attach(deps.Bus)
	}

	return s
}

// Run starts the subsystems and serves the control plane. Blocks until
// Shutdown closes the pipe listener.
func (s *Service) Run() error {
	if s.metrics != nil {
		s.metrics.Start()
	}

	cfg := s.cfg.Get()
	if cfg.Autostart && cfg.Endpoint.ServerIP != "" && cfg.Endpoint.ServerPort != 0 {
		if !s.engine.Start(cfg.Endpoint.ServerIP, cfg.Endpoint.ServerPort) {
			core.Log.Warnf("Service", "Autostart failed for %s:%d", cfg.Endpoint.ServerIP, cfg.Endpoint.ServerPort)
		}
	}

	ln, err := ipc.PipeListener()
	if err != nil {
		s.engine.Stop()
		return fmt.Errorf("listen control pipe: %w", err)
	}
	core.Log.Infof("Service", "Control plane listening on %s", ipc.PipeName)
	return s.ipc.Serve(ln)
}

// Shutdown stops the control plane and the engine.
func (s *Service) Shutdown() {
	s.ipc.Close()
	s.engine.Stop()
	if s.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		s.metrics.Stop(ctx)
	}
}
