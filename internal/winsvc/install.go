//go:build windows

package winsvc

import (
	"fmt"
	"time"

	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/mgr"
)

const (
	stateWaitMax  = 15 * time.Second
	stateWaitStep = 500 * time.Millisecond
)

// withService runs fn against the installed service, handling the SCM
// connect/open/close plumbing.
func withService(fn func(*mgr.Service) error) error {
	m, err := mgr.Connect()
	if err != nil {
		return fmt.Errorf("winsvc: connect to SCM: %w", err)
	}
	defer m.Disconnect()

	s, err := m.OpenService(ServiceName)
	if err != nil {
		return fmt.Errorf("winsvc: open service %q: %w", ServiceName, err)
	}
	defer s.Close()

	return fn(s)
}

// waitForState polls until the service reaches want or the wait times out.
func waitForState(s *mgr.Service, want svc.State) error {
	deadline := time.Now().Add(stateWaitMax)
	for {
		st, err := s.Query()
		if err != nil {
			return fmt.Errorf("winsvc: query status: %w", err)
		}
		if st.State == want {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("winsvc: timeout waiting for service state %d", want)
		}
		time.Sleep(stateWaitStep)
	}
}

// InstallService registers the service with the SCM, set to start
// automatically as LocalSystem. configPath, when non-empty, is passed
// through via --config.
func InstallService(exePath, configPath string) error {
	m, err := mgr.Connect()
	if err != nil {
		return fmt.Errorf("winsvc: connect to SCM: %w", err)
	}
	defer m.Disconnect()

	if s, err := m.OpenService(ServiceName); err == nil {
		s.Close()
		return fmt.Errorf("winsvc: service %q already exists", ServiceName)
	}

	args := []string{"--service"}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}

	s, err := m.CreateService(ServiceName, exePath, mgr.Config{
		DisplayName:      ServiceDisplayName,
		Description:      ServiceDescription,
		StartType:        mgr.StartAutomatic,
		ServiceStartName: "LocalSystem",
	}, args...)
	if err != nil {
		return fmt.Errorf("winsvc: create service: %w", err)
	}
	defer s.Close()

	// Restart on failure, reset the failure count daily. Best-effort —
	// the service works without recovery actions.
	_ = s.SetRecoveryActions([]mgr.RecoveryAction{
		{Type: mgr.ServiceRestart, Delay: 5 * time.Second},
		{Type: mgr.ServiceRestart, Delay: 5 * time.Second},
		{Type: mgr.ServiceRestart, Delay: 30 * time.Second},
	}, 86400)

	return nil
}

// UninstallService stops the service if it is running, then deletes it.
func UninstallService() error {
	return withService(func(s *mgr.Service) error {
		if _, err := s.Control(svc.Stop); err == nil {
			_ = waitForState(s, svc.Stopped)
		}
		if err := s.Delete(); err != nil {
			return fmt.Errorf("winsvc: delete service: %w", err)
		}
		return nil
	})
}

// StartService starts the service and waits until it is running.
func StartService() error {
	return withService(func(s *mgr.Service) error {
		if err := s.Start(); err != nil {
			return fmt.Errorf("winsvc: start service: %w", err)
		}
		return waitForState(s, svc.Running)
	})
}

// StopService stops the service and waits until it has exited.
func StopService() error {
	return withService(func(s *mgr.Service) error {
		if _, err := s.Control(svc.Stop); err != nil {
			return fmt.Errorf("winsvc: stop service: %w", err)
		}
		return waitForState(s, svc.Stopped)
	})
}
