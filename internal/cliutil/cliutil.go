// Package cliutil holds the small CLI-side helpers spec.md §6 describes but scopes out of the
// core: reading a delimited path list from stdin, and rendering a single pre-scan notification
// (config/ignore-file load failures) the same way pkg/scan renders its own.
package cliutil

import (
	"fmt"
	"io"
	"strings"
	"time"

	"autocr/pkg/model"
)

// ReadPaths reads the whole of r and splits it into a path list per spec.md §6's readStdin byte
// protocol: if the stream contains any NUL byte, it is the record separator for the entire
// stream; otherwise records are split on "\r?\n". Each record then has a single trailing "\r"
// stripped (in the newline case this only affects a final record that ends in a lone "\r", since
// the split above already consumes every "\r\n" pair), empty records are dropped, and anything else — including interior spaces — is
// preserved verbatim.
func ReadPaths(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read paths from stdin: %w", err)
	}

	var records []string
	if strings.IndexByte(string(data), 0) >= 0 {
		records = strings.Split(string(data), "\x00")
	} else {
		text := strings.ReplaceAll(string(data), "\r\n", "\n")
		records = strings.Split(text, "\n")
	}

	var paths []string
	for _, rec := range records {
		rec = strings.TrimSuffix(rec, "\r")
		if rec == "" {
			continue
		}
		paths = append(paths, rec)
	}
	return paths, nil
}

// RenderNotification writes a single notification in the same format pkg/scan uses for its own
// scan-time diagnostics, for notifications raised before Run is ever called (a malformed --config
// or --ignore file).
func RenderNotification(w io.Writer, at time.Time, n model.Notification) {
	stamp := at.Format("15:04:05")
	fmt.Fprintf(w, "[%s] %s: %s\n", stamp, strings.ToUpper(string(n.Level)), n.Message)
	if n.Detail != "" {
		fmt.Fprintf(w, "  %s\n", n.Detail)
	}
}
