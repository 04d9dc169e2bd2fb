package scan

import (
	"fmt"
	"io"
	"strings"
	"time"

	"autocr/pkg/model"
)

// renderNotification writes a single scan-level diagnostic (not a violation) in text mode:
// spec.md's notifications carry their own fixed English message, so unlike a violation's tag
// label and severity icon, nothing here is routed through the locale provider.
func renderNotification(w io.Writer, at time.Time, n model.Notification) {
	stamp := at.Format("15:04:05")
	fmt.Fprintf(w, "[%s] %s: %s\n", stamp, strings.ToUpper(string(n.Level)), n.Message)
	if n.Detail != "" {
		fmt.Fprintf(w, "  %s\n", n.Detail)
	}
}
