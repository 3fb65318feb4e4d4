// Package notify sends volume changes as desktop notifications over the
// org.freedesktop.Notifications D-Bus interface.
package notify

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/volblock/internal/adapter/output"
)

const (
	// DBusInterface is the notification interface name.
	DBusInterface = "org.freedesktop.Notifications"
	// DBusPath is the notification object path.
	DBusPath = "/org/freedesktop/Notifications"
	// DBusBusName is the bus name of the notification server.
	DBusBusName = "org.freedesktop.Notifications"

	// AppName is sent as the notification app name and the synchronous hint.
	AppName = "volblock"

	// DefaultMinInterval is the minimum time between identical notifications.
	DefaultMinInterval = 5 * time.Second
)

// Caller is the part of a D-Bus object used to send notifications.
type Caller interface {
	Call(method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// Notifier sends a single replaceable notification per volume change.
// Repeated identical bodies are rate limited.
type Notifier struct {
	mu     sync.Mutex
	obj    Caller
	logger *slog.Logger

	timeout     time.Duration
	minInterval time.Duration

	// ID of the last notification, replaced on the next send
	lastID   uint32
	lastBody string
	lastSent time.Time

	now func() time.Time
}

// New creates a Notifier that sends through obj.
func New(obj Caller, timeout time.Duration, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		obj:         obj,
		logger:      logger,
		timeout:     timeout,
		minInterval: DefaultMinInterval,
		now:         time.Now,
	}
}

// Connect creates a Notifier on the session bus.
func Connect(timeout time.Duration, logger *slog.Logger) (*Notifier, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return New(conn.Object(DBusBusName, DBusPath), timeout, logger), nil
}

// SetTimeout sets the expire timeout of subsequent notifications.
func (n *Notifier) SetTimeout(d time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.timeout = d
}

// SetMinInterval sets the minimum interval between identical notifications.
func (n *Notifier) SetMinInterval(d time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minInterval = d
}

// Hints returns the notification hints for s.
func Hints(s output.Status) map[string]dbus.Variant {
	hints := map[string]dbus.Variant{
		"x-canonical-private-synchronous": dbus.MakeVariant(AppName),
		"urgency":                         dbus.MakeVariant(byte(0)),
	}
	if s.HasLevel {
		hints["value"] = dbus.MakeVariant(int32(max(0, min(100, s.Level))))
	}
	return hints
}

// Notify sends s, replacing the previous notification. It reports whether a
// notification was sent.
func (n *Notifier) Notify(s output.Status) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	body := s.Text()
	if s.Err != nil {
		body += " (" + s.Err.Error() + ")"
	}

	now := n.now()
	if body == n.lastBody && now.Sub(n.lastSent) < n.minInterval {
		n.logger.Debug("notification rate-limited", "body", body)
		return false, nil
	}

	call := n.obj.Call(DBusInterface+".Notify", 0,
		AppName,
		n.lastID,
		"",
		s.Name,
		body,
		[]string{},
		Hints(s),
		int32(n.timeout/time.Millisecond),
	)
	if call.Err != nil {
		return false, fmt.Errorf("failed to send notification: %w", call.Err)
	}

	var id uint32
	if err := call.Store(&id); err != nil {
		return false, fmt.Errorf("unexpected notify reply: %w", err)
	}

	n.lastID = id
	n.lastBody = body
	n.lastSent = now
	n.logger.Debug("notification sent", "id", id, "body", body)
	return true, nil
}
