// Package browser owns the Playwright session lifecycle and the tool
// executor that maps the agent's tool calls onto page operations.
package browser

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// defaultTimeoutMs is the per-operation timeout applied to the page.
const defaultTimeoutMs = 15000

// Session is one launched browser. A fresh session is created per
// application run and closed unconditionally when the run ends.
type Session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
}

// NewSession starts Playwright, launches Chromium and opens a page with
// the default timeout applied.
func NewSession(headless bool) (*Session, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("browser: start playwright: %w", err)
	}
	b, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("browser: launch chromium: %w", err)
	}
	page, err := b.NewPage()
	if err != nil {
		b.Close()
		pw.Stop()
		return nil, fmt.Errorf("browser: open page: %w", err)
	}
	page.SetDefaultTimeout(defaultTimeoutMs)
	return &Session{pw: pw, browser: b, page: page}, nil
}

// Page returns the session's page.
func (s *Session) Page() playwright.Page { return s.page }

// Close tears the session down. Safe to call after partial failures.
func (s *Session) Close() error {
	var firstErr error
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			firstErr = err
		}
	}
	if s.pw != nil {
		if err := s.pw.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
