package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/Veraticus/keytrigger/pkg/interfaces"
)

// Host is a terminal stand-in for the input method. It owns the text buffer
// that keystrokes are typed into and reports every collaborator call on out.
type Host struct {
	mu  sync.Mutex
	out io.Writer
	buf string
}

var (
	_ interfaces.AIClient      = (*Host)(nil)
	_ interfaces.TextCommitter = (*Host)(nil)
	_ interfaces.Editor        = (*Host)(nil)
	_ interfaces.Browser       = (*Host)(nil)
	_ interfaces.AppLauncher   = (*Host)(nil)
	_ interfaces.SettingsUI    = (*Host)(nil)
)

// NewHost creates a host writing to out.
func NewHost(out io.Writer) *Host {
	return &Host{out: out}
}

// Text returns the buffer contents.
func (h *Host) Text() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.buf
}

// Type appends s at the end of the buffer and returns the new contents.
func (h *Host) Type(s string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.buf += s
	return h.buf
}

// Clear empties the buffer.
func (h *Host) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.buf = ""
}

// DeleteRange removes buf[start:end].
func (h *Host) DeleteRange(_ context.Context, start, end int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if start < 0 || end < start || end > len(h.buf) {
		return fmt.Errorf("delete range [%d,%d) outside buffer of %d bytes", start, end, len(h.buf))
	}
	h.buf = h.buf[:start] + h.buf[end:]
	return nil
}

// Commit inserts text at the cursor, which is always the end of the buffer.
func (h *Host) Commit(_ context.Context, text string) error {
	h.mu.Lock()
	h.buf += text
	h.mu.Unlock()
	h.printf("[COMMIT] %q\n", text)
	return nil
}

// Generate prints the request instead of calling a model.
func (h *Host) Generate(_ context.Context, req interfaces.AIRequest) error {
	if req.SystemMessage != "" {
		h.printf("[AI %s] %s (System: %s)\n", req.ID, req.Prompt, req.SystemMessage)
		return nil
	}
	h.printf("[AI %s] %s\n", req.ID, req.Prompt)
	return nil
}

// OpenURL prints the page that would be opened.
func (h *Host) OpenURL(_ context.Context, title, url string) error {
	h.printf("[BROWSER] %s: %s\n", title, url)
	return nil
}

// Launch prints the application that would be started.
func (h *Host) Launch(_ context.Context, packageName, activityName string) error {
	if activityName != "" {
		h.printf("[LAUNCH] %s/%s\n", packageName, activityName)
		return nil
	}
	h.printf("[LAUNCH] %s\n", packageName)
	return nil
}

// ShowSettings prints a settings marker.
func (h *Host) ShowSettings(context.Context) error {
	h.printf("[SETTINGS]\n")
	return nil
}

// ShowCommandEditor prints a command editor marker.
func (h *Host) ShowCommandEditor(context.Context) error {
	h.printf("[COMMANDS]\n")
	return nil
}

func (h *Host) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(h.out, format, args...)
}
