//go:build windows

package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-toast/toast"

	"happycat-dpi/internal/core"
)

// Notifier sends Windows toast notifications for engine events,
// throttled so a flapping driver doesn't spam the user.
type Notifier struct {
	mu        sync.Mutex
	lastNotif map[string]time.Time
	throttle  time.Duration
	appName   string
}

// NewNotifier creates a notifier with default settings.
func NewNotifier() *Notifier {
	return &Notifier{
		lastNotif: make(map[string]time.Time),
		throttle:  30 * time.Second,
		appName:   "Happycat VPN",
	}
}

// Attach subscribes the notifier to engine events on the bus.
func (n *Notifier) Attach(bus *core.EventBus) {
	bus.Subscribe(core.EventInjectorStarted, func(e core.Event) {
		if p, ok := e.Payload.(core.InjectorStartedPayload); ok {
			n.notify("started", "DPI protection active", fmt.Sprintf("Decoy injection enabled for %s:%d", p.ServerIP, p.ServerPort))
		}
	})
	bus.Subscribe(core.EventDriverError, func(e core.Event) {
		if p, ok := e.Payload.(core.DriverErrorPayload); ok {
			n.notify("driver_error:"+p.Op, "DPI protection unavailable", "Packet driver error: "+p.Err)
		}
	})
}

func (n *Notifier) notify(key, title, message string) {
	n.mu.Lock()
	if time.Since(n.lastNotif[key]) < n.throttle {
		n.mu.Unlock()
		return
	}
	n.lastNotif[key] = time.Now()
	n.mu.Unlock()

	go n.send(title, message)
}

func (n *Notifier) send(title, message string) {
	t := toast.Notification{
		AppID:   n.appName,
		Title:   title,
		Message: message,
	}
	if err := t.Push(); err != nil {
		core.Log.Debugf("Service", "Toast notification failed: %v", err)
	}
}
