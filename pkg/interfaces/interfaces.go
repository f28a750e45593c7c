// Package interfaces defines the host collaborators the dispatcher and session drive.
package interfaces

import "context"

// AIRequest is one generation request.
type AIRequest struct {
	ID            string
	Prompt        string
	SystemMessage string
}

// AIClient generates a response for a request. Responses are streamed back to
// the host by the client itself.
type AIClient interface {
	Generate(ctx context.Context, req AIRequest) error
}

// TextCommitter inserts text at the cursor without re-triggering input handling.
type TextCommitter interface {
	Commit(ctx context.Context, text string) error
}

// Editor deletes a byte range from the live buffer with input notifications suspended.
type Editor interface {
	DeleteRange(ctx context.Context, start, end int) error
}

// Browser shows a web page.
type Browser interface {
	OpenURL(ctx context.Context, title, url string) error
}

// AppLauncher starts an application.
type AppLauncher interface {
	Launch(ctx context.Context, packageName, activityName string) error
}

// SettingsUI opens host dialogs.
type SettingsUI interface {
	ShowSettings(ctx context.Context) error
	ShowCommandEditor(ctx context.Context) error
}

// RateLimiter limits dispatch frequency.
type RateLimiter interface {
	Allow() bool
	Reset()
}
