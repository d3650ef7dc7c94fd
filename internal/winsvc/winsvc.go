//go:build windows

// Package winsvc integrates the injector host with the Windows Service
// Control Manager.
package winsvc

import (
	"sync"

	"golang.org/x/sys/windows/svc"
)

const (
	ServiceName        = "HappycatDPI"
	ServiceDisplayName = "Happycat DPI Evasion Service"
	ServiceDescription = "Injects phantom decoy packets ahead of new VPN flows to defeat in-path DPI"
)

// IsWindowsService reports whether the process was launched by the SCM.
func IsWindowsService() bool {
	isSvc, err := svc.IsWindowsService()
	return err == nil && isSvc
}

// RunService hands the process over to the SCM. runFunc hosts the engine
// and blocks until stopFunc is called; RunService blocks until the
// service stops.
func RunService(runFunc func() error, stopFunc func()) error {
	return svc.Run(ServiceName, &scmHandler{run: runFunc, stop: stopFunc})
}

// scmHandler bridges SCM control requests onto the host's run/stop pair.
type scmHandler struct {
	run      func() error
	stop     func()
	stopOnce sync.Once
}

// Execute implements svc.Handler.
func (h *scmHandler) Execute(_ []string, requests <-chan svc.ChangeRequest, status chan<- svc.Status) (bool, uint32) {
	status <- svc.Status{State: svc.StartPending}

	errCh := make(chan error, 1)
	go func() { errCh <- h.run() }()

	// run blocks for the service lifetime, so Running is reported at once.
	status <- svc.Status{State: svc.Running, Accepts: svc.AcceptStop | svc.AcceptShutdown}

	for {
		select {
		case req := <-requests:
			switch req.Cmd {
			case svc.Interrogate:
				status <- req.CurrentStatus
			case svc.Stop, svc.Shutdown:
				status <- svc.Status{State: svc.StopPending}
				h.stopOnce.Do(h.stop)
				return false, exitCode(<-errCh)
			}
		case err := <-errCh:
			// The host exited on its own, gracefully or not.
			return err != nil, exitCode(err)
		}
	}
}

func exitCode(err error) uint32 {
	if err != nil {
		return 1
	}
	return 0
}
