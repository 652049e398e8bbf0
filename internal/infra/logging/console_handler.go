package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

const (
	ansiReset     = "\033[0m"
	ansiRed       = "\033[31m"
	ansiGreen     = "\033[32m"
	ansiYellow    = "\033[33m"
	ansiCyan      = "\033[36m"
	ansiGray      = "\033[90m"
	ansiUnderline = "\033[4m"
)

//nolint:gochecknoglobals
var levelColors = map[slog.Level]string{
	slog.LevelDebug: ansiCyan,
	slog.LevelInfo:  ansiGreen,
	slog.LevelWarn:  ansiYellow,
	slog.LevelError: ansiRed,
}

// ConsoleHandler implements slog.Handler with colored, human-readable output
// for local development.
type ConsoleHandler struct {
	// Output is the destination for log output.
	Output io.Writer
	// Level is the minimum level for records without a PkgLevels match.
	Level slog.Leveler
	// PkgLevels maps logger name prefixes to minimum levels.
	PkgLevels map[string]slog.Level

	attrs  []groupedAttr
	groups []string
}

// groupedAttr is an attribute added through WithAttrs, together with the
// group prefix that was open at the time.
type groupedAttr struct {
	prefix string
	attr   slog.Attr
}

var _ slog.Handler = (*ConsoleHandler)(nil)

// Handle implements slog.Handler.
func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	prefix := h.groupPrefix()

	attrs := make([]groupedAttr, 0, r.NumAttrs()+len(h.attrs))
	attrs = append(attrs, h.attrs...)

	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, groupedAttr{prefix: prefix, attr: a})

		return true
	})

	if !h.pkgEnabled(loggerName(attrs), r.Level) {
		return nil
	}

	var sb strings.Builder

	sb.WriteString(ansiGray + r.Time.Format("15:04:05.000000") + ansiReset)
	sb.WriteString(" " + levelColors[r.Level] + "[" + r.Level.String() + "]" + ansiReset)
	sb.WriteString(" " + r.Message)

	if len(attrs) > 0 {
		sb.WriteString(" " + ansiGray + "|" + ansiReset)

		for _, ga := range attrs {
			writeAttrs(&sb, ga.prefix, []slog.Attr{ga.attr})
		}
	}

	if r.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()

		sb.WriteString("\n-> " + ansiGray + filepath.Base(frame.Function) + "()")
		sb.WriteString(" in " + ansiUnderline + frame.File + ":" + strconv.Itoa(frame.Line) + ansiReset)
	}

	_, err := fmt.Fprintln(h.Output, sb.String())

	return err //nolint:wrapcheck
}

// pkgEnabled walks the dotted logger name from the most to the least
// specific prefix and applies the first configured level it finds.
func (h *ConsoleHandler) pkgEnabled(name string, level slog.Level) bool {
	parts := strings.Split(name, ".")

	for i := len(parts); i >= 0; i-- {
		threshold, ok := h.PkgLevels[strings.Join(parts[:i], ".")]
		if ok {
			return level >= threshold
		}
	}

	return level >= h.Level.Level()
}

func (h *ConsoleHandler) groupPrefix() string {
	if len(h.groups) == 0 {
		return ""
	}

	return strings.Join(h.groups, ".") + "."
}

// loggerName finds the top-level "logger" attribute set by GetLogger.
func loggerName(attrs []groupedAttr) string {
	for _, ga := range attrs {
		if ga.prefix == "" && ga.attr.Key == "logger" {
			return ga.attr.Value.String()
		}
	}

	return ""
}

func writeAttrs(sb *strings.Builder, prefix string, attrs []slog.Attr) {
	for _, attr := range attrs {
		if attr.Value.Kind() == slog.KindGroup {
			writeAttrs(sb, prefix+attr.Key+".", attr.Value.Group())

			continue
		}

		sb.WriteString(" " + prefix + attr.Key + "=" + ansiGray + attr.Value.String() + ansiReset)
	}
}

// WithAttrs implements slog.Handler.
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) Handler {
	prefix := h.groupPrefix()

	clone := *h
	clone.attrs = append([]groupedAttr{}, h.attrs...)

	for _, attr := range attrs {
		clone.attrs = append(clone.attrs, groupedAttr{prefix: prefix, attr: attr})
	}

	return &clone
}

// WithGroup implements slog.Handler.
func (h *ConsoleHandler) WithGroup(name string) Handler {
	clone := *h
	clone.groups = append(append([]string{}, h.groups...), name)

	return &clone
}

// Enabled implements slog.Handler. Records below Level may still be wanted
// by a more verbose PkgLevels entry, so those are let through to Handle.
func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	if h.Level.Level() <= level {
		return true
	}

	for _, threshold := range h.PkgLevels {
		if threshold <= level {
			return true
		}
	}

	return false
}
