package testutil

import (
	"context"
	"sync"

	"github.com/Veraticus/keytrigger/pkg/interfaces"
)

// MockAIClient is a thread-safe mock implementation of interfaces.AIClient for testing
type MockAIClient struct {
	mu       sync.Mutex
	requests []interfaces.AIRequest
	err      error
}

// NewMockAIClient creates a new mock AI client
func NewMockAIClient() *MockAIClient {
	return &MockAIClient{requests: []interfaces.AIRequest{}}
}

// Generate implements the AIClient interface
func (m *MockAIClient) Generate(_ context.Context, req interfaces.AIRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Always track the attempt
	m.requests = append(m.requests, req)
	return m.err
}

// GetRequests returns a copy of all received requests
func (m *MockAIClient) GetRequests() []interfaces.AIRequest {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]interfaces.AIRequest, len(m.requests))
	copy(result, m.requests)
	return result
}

// SetError sets the error to return on Generate calls
func (m *MockAIClient) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// MockCommitter is a mock implementation of interfaces.TextCommitter for testing
type MockCommitter struct {
	mu      sync.Mutex
	commits []string
	err     error
}

// NewMockCommitter creates a new mock committer
func NewMockCommitter() *MockCommitter {
	return &MockCommitter{commits: []string{}}
}

// Commit implements the TextCommitter interface
func (m *MockCommitter) Commit(_ context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commits = append(m.commits, text)
	return m.err
}

// GetCommits returns a copy of committed texts
func (m *MockCommitter) GetCommits() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]string, len(m.commits))
	copy(result, m.commits)
	return result
}

// SetError sets the error to return on Commit calls
func (m *MockCommitter) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Deletion is one range removed through MockEditor.
type Deletion struct {
	Start int
	End   int
}

// MockEditor is a mock implementation of interfaces.Editor for testing
type MockEditor struct {
	mu        sync.Mutex
	deletions []Deletion
	err       error
}

// NewMockEditor creates a new mock editor
func NewMockEditor() *MockEditor {
	return &MockEditor{deletions: []Deletion{}}
}

// DeleteRange implements the Editor interface
func (m *MockEditor) DeleteRange(_ context.Context, start, end int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletions = append(m.deletions, Deletion{Start: start, End: end})
	return m.err
}

// GetDeletions returns a copy of deleted ranges
func (m *MockEditor) GetDeletions() []Deletion {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]Deletion, len(m.deletions))
	copy(result, m.deletions)
	return result
}

// SetError sets the error to return on DeleteRange calls
func (m *MockEditor) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Page is one page shown through MockBrowser.
type Page struct {
	Title string
	URL   string
}

// MockBrowser is a mock implementation of interfaces.Browser for testing
type MockBrowser struct {
	mu    sync.Mutex
	pages []Page
	err   error
}

// NewMockBrowser creates a new mock browser
func NewMockBrowser() *MockBrowser {
	return &MockBrowser{pages: []Page{}}
}

// OpenURL implements the Browser interface
func (m *MockBrowser) OpenURL(_ context.Context, title, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages = append(m.pages, Page{Title: title, URL: url})
	return m.err
}

// GetPages returns a copy of opened pages
func (m *MockBrowser) GetPages() []Page {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]Page, len(m.pages))
	copy(result, m.pages)
	return result
}

// SetError sets the error to return on OpenURL calls
func (m *MockBrowser) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Launch is one application start through MockLauncher.
type Launch struct {
	PackageName  string
	ActivityName string
}

// MockLauncher is a mock implementation of interfaces.AppLauncher for testing
type MockLauncher struct {
	mu       sync.Mutex
	launches []Launch
	err      error
}

// NewMockLauncher creates a new mock launcher
func NewMockLauncher() *MockLauncher {
	return &MockLauncher{launches: []Launch{}}
}

// Launch implements the AppLauncher interface
func (m *MockLauncher) Launch(_ context.Context, packageName, activityName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.launches = append(m.launches, Launch{PackageName: packageName, ActivityName: activityName})
	return m.err
}

// GetLaunches returns a copy of launched applications
func (m *MockLauncher) GetLaunches() []Launch {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]Launch, len(m.launches))
	copy(result, m.launches)
	return result
}

// SetError sets the error to return on Launch calls
func (m *MockLauncher) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// MockSettingsUI is a mock implementation of interfaces.SettingsUI for testing
type MockSettingsUI struct {
	mu                sync.Mutex
	settingsCount     int
	commandEditorOpen int
}

// NewMockSettingsUI creates a new mock settings UI
func NewMockSettingsUI() *MockSettingsUI {
	return &MockSettingsUI{}
}

// ShowSettings implements the SettingsUI interface
func (m *MockSettingsUI) ShowSettings(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settingsCount++
	return nil
}

// ShowCommandEditor implements the SettingsUI interface
func (m *MockSettingsUI) ShowCommandEditor(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commandEditorOpen++
	return nil
}

// GetSettingsCount returns how many times ShowSettings was called
func (m *MockSettingsUI) GetSettingsCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settingsCount
}

// GetCommandEditorCount returns how many times ShowCommandEditor was called
func (m *MockSettingsUI) GetCommandEditorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commandEditorOpen
}

// MockRateLimiter is a mock implementation of interfaces.RateLimiter for testing
type MockRateLimiter struct {
	mu          sync.Mutex
	allowResult bool
	allowCount  int
	resetCount  int
}

// NewMockRateLimiter creates a new mock rate limiter
func NewMockRateLimiter(allowResult bool) *MockRateLimiter {
	return &MockRateLimiter{
		allowResult: allowResult,
	}
}

// Allow implements the RateLimiter interface
func (m *MockRateLimiter) Allow() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.allowCount++
	return m.allowResult
}

// Reset implements the RateLimiter interface
func (m *MockRateLimiter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetCount++
}

// SetAllowResult sets the result that Allow() will return
func (m *MockRateLimiter) SetAllowResult(allow bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.allowResult = allow
}

// GetAllowCount returns how many times Allow was called
func (m *MockRateLimiter) GetAllowCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.allowCount
}

// GetResetCount returns how many times Reset was called
func (m *MockRateLimiter) GetResetCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resetCount
}
