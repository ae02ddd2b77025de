// Package obslog wraps log/slog with a mutex-serialized handler that
// writes a timestamped, space-joined line, the way the rest of this
// pack's simulators format their trace output.
package obslog

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// handler formats records as "<time> <level>: <message> <attr> ...".
type handler struct {
	out io.Writer
	mu  *sync.Mutex
	lvl slog.Leveler
}

func (h *handler) Enabled(_ context.Context, level slog.Level) bool {
	min := slog.LevelInfo
	if h.lvl != nil {
		min = h.lvl.Level()
	}
	return level >= min
}

func (h *handler) WithAttrs(_ []slog.Attr) slog.Handler { return h }
func (h *handler) WithGroup(_ string) slog.Handler      { return h }

func (h *handler) Handle(_ context.Context, r slog.Record) error {
	parts := []string{r.Time.Format("2006/01/02 15:04:05"), r.Level.String() + ":", r.Message}
	r.Attrs(func(a slog.Attr) bool {
		parts = append(parts, a.Key+"="+a.Value.String())
		return true
	})
	line := strings.Join(parts, " ") + "\n"

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write([]byte(line))
	return err
}

// New builds a *slog.Logger that writes to w, serialized under a mutex.
func New(w io.Writer, lvl slog.Leveler) *slog.Logger {
	return slog.New(&handler{out: w, mu: &sync.Mutex{}, lvl: lvl})
}
