package notify

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"github.com/gen2brain/beeep"
)

// Desktop sends OS-level alerts through the system notification service.
type Desktop struct {
	Sound bool
}

// NewDesktop returns a desktop channel with the alert sound enabled.
func NewDesktop() *Desktop {
	return &Desktop{Sound: true}
}

// Name identifies the channel in logs and metrics.
func (*Desktop) Name() string {
	return "desktop"
}

// Send shows the notification. beeep picks the platform mechanism itself.
func (d *Desktop) Send(_ context.Context, title, body string) error {
	var err error
	if d.Sound {
		err = beeep.Alert(title, body, "")
	} else {
		err = beeep.Notify(title, body, "")
	}
	if err != nil {
		return fmt.Errorf("desktop notification: %w", err)
	}
	return nil
}

// permissionScript probes the macOS notification service so the OS shows its
// one-time permission dialog; on a denial it falls back to a visible dialog
// telling the operator where to grant access.
const permissionScript = `try
	display notification "Permission test" with title "Yochi Price Monitor"
on error
	display dialog "Please allow notifications for this app in System Preferences → Security & Privacy → Privacy → Notifications" buttons {"OK"} default button 1
end try`

// RequestPermission triggers the macOS notification permission prompt.
// On other platforms no prompt exists and this is a no-op.
func RequestPermission(ctx context.Context) error {
	if runtime.GOOS != "darwin" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := exec.CommandContext(ctx, "osascript", "-e", permissionScript).Run(); err != nil {
		return fmt.Errorf("request notification permission: %w", err)
	}
	return nil
}
