package platform

import "time"

// DefaultAppName identifies the application to the notification center.
const DefaultAppName = "LabelCanvas"

// DefaultTimeout is how long a notification stays on screen where the
// platform lets us choose.
const DefaultTimeout = 5 * time.Second

// Options configures how a notification is displayed on the host platform.
type Options struct {
	// AppName overrides DefaultAppName.
	AppName string
	// IconPath, when non-empty, points to an image file the notification center
	// should display with the notification if supported by the platform.
	IconPath string
	// Timeout overrides DefaultTimeout.
	Timeout time.Duration
}

func (o Options) appName() string {
	if o.AppName == "" {
		return DefaultAppName
	}
	return o.AppName
}

func (o Options) timeout() time.Duration {
	if o.Timeout <= 0 {
		return DefaultTimeout
	}
	return o.Timeout
}
