//go:build linux

package platform

import (
	"github.com/godbus/dbus/v5"
)

const (
	notifyDest  = "org.freedesktop.Notifications"
	notifyPath  = "/org/freedesktop/Notifications"
	notifyCall  = notifyDest + ".Notify"
	urgencyLow  = byte(0)
	desktopName = "labelcanvas"
)

// Notify sends a desktop notification over the freedesktop notifications
// D-Bus interface. Label events are informational, so they go out with low
// urgency.
func Notify(title, body string, opts Options) error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return err
	}
	defer conn.Close()

	hints := map[string]dbus.Variant{
		"urgency":       dbus.MakeVariant(urgencyLow),
		"desktop-entry": dbus.MakeVariant(desktopName),
	}
	return conn.Object(notifyDest, notifyPath).Call(notifyCall, 0,
		opts.appName(), uint32(0), opts.IconPath, title, body, []string{}, hints,
		int32(opts.timeout().Milliseconds())).Err
}
