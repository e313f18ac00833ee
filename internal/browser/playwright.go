package browser

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/jobpilot/jobpilot/internal/interaction"
	"github.com/jobpilot/jobpilot/internal/tools"
	"github.com/jobpilot/jobpilot/pkg/models"
)

const (
	snapshotLimit     = 8000
	textFallbackLimit = 4000
	scrollDelta       = 600
)

// Executor translates agent tool calls into Playwright page operations.
// Element lookups walk a priority chain of locators (role, label,
// placeholder, name attribute, raw selector); a miss on every rung is
// reported to the model as a benign result string so it can try a
// different target.
type Executor struct {
	page            playwright.Page
	ui              interaction.UserInteraction
	resumePath      string
	coverLetterPath string
}

// NewExecutor builds an Executor over an open page. resumePath and
// coverLetterPath may be empty when the corresponding document is not
// configured.
func NewExecutor(page playwright.Page, ui interaction.UserInteraction, resumePath, coverLetterPath string) *Executor {
	return &Executor{
		page:            page,
		ui:              ui,
		resumePath:      resumePath,
		coverLetterPath: coverLetterPath,
	}
}

// AvailableTools returns the declared tool set.
func (e *Executor) AvailableTools() []tools.Definition { return tools.Definitions() }

// Execute runs one tool call. Infrastructure failures (page crashed,
// navigation refused, user channel down) return an error; anything the
// model can recover from comes back as the result string.
func (e *Executor) Execute(ctx context.Context, call models.ToolCall) (string, error) {
	switch call.Name {
	case tools.PageSnapshot:
		return e.pageSnapshot()
	case tools.Screenshot:
		return e.screenshotBase64()
	case tools.Goto:
		return e.navigate(call.StringArg("url", ""))
	case tools.Click:
		return e.click(call.StringArg("target", ""))
	case tools.Fill:
		return e.fill(call.StringArg("field", ""), call.StringArg("value", ""))
	case tools.SelectOption:
		return e.selectOption(call.StringArg("field", ""), call.StringArg("value", ""))
	case tools.UploadFile:
		return e.uploadFile(call.StringArg("field", ""), call.StringArg("file_type", "resume"))
	case tools.Scroll:
		return e.scroll(call.StringArg("direction", "down"))
	case tools.GetCurrentURL:
		return e.page.URL(), nil
	case tools.Wait:
		return e.wait(intArg(call, "seconds", 2))
	case tools.AskUser:
		return e.askUser(ctx, call.StringArg("question", ""))
	case tools.ReportStatus:
		return e.reportStatus(ctx, call.StringArg("message", ""))
	default:
		return fmt.Sprintf("Unknown tool: %s", call.Name), nil
	}
}

// Screenshot captures a full-page PNG. Used directly by the debug
// artifact capturer as well as via the screenshot tool.
func (e *Executor) Screenshot(ctx context.Context) ([]byte, error) {
	data, err := e.page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("browser: screenshot: %w", err)
	}
	return data, nil
}

func (e *Executor) pageSnapshot() (string, error) {
	snapshot, err := e.page.Locator("body").AriaSnapshot()
	if err != nil || snapshot == "" {
		body, textErr := e.page.InnerText("body")
		if textErr != nil {
			return "", fmt.Errorf("browser: page snapshot: %w", textErr)
		}
		return truncate(body, textFallbackLimit), nil
	}
	return truncate(snapshot, snapshotLimit), nil
}

func (e *Executor) screenshotBase64() (string, error) {
	data, err := e.Screenshot(context.Background())
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func (e *Executor) navigate(url string) (string, error) {
	if _, err := e.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return "", fmt.Errorf("browser: goto %s: %w", url, err)
	}
	return fmt.Sprintf("Navigated to %s", url), nil
}

func (e *Executor) click(target string) (string, error) {
	loc, ok := e.firstMatch(
		e.page.GetByRole(*playwright.AriaRoleButton, playwright.PageGetByRoleOptions{Name: target}),
		e.page.GetByRole(*playwright.AriaRoleLink, playwright.PageGetByRoleOptions{Name: target}),
		e.page.GetByText(target, playwright.PageGetByTextOptions{Exact: playwright.Bool(false)}),
		e.page.Locator(target),
	)
	if !ok {
		return fmt.Sprintf("Element not found: %s", target), nil
	}
	if err := loc.Click(); err != nil {
		return "", fmt.Errorf("browser: click %s: %w", target, err)
	}
	return fmt.Sprintf("Clicked: %s", target), nil
}

func (e *Executor) fill(field, value string) (string, error) {
	loc, ok := e.firstMatch(
		e.page.GetByLabel(field),
		e.page.GetByPlaceholder(field),
		e.page.Locator(fmt.Sprintf(`[name=%q]`, field)),
		e.page.Locator("#"+field),
		e.page.Locator(field),
	)
	if !ok {
		return fmt.Sprintf("Field not found: %s", field), nil
	}
	if err := loc.Fill(value); err != nil {
		return "", fmt.Errorf("browser: fill %s: %w", field, err)
	}
	return fmt.Sprintf("Filled %s", field), nil
}

func (e *Executor) selectOption(field, value string) (string, error) {
	loc, ok := e.firstMatch(
		e.page.GetByLabel(field),
		e.page.Locator(fmt.Sprintf(`[name=%q]`, field)),
		e.page.Locator(field),
	)
	if !ok {
		return fmt.Sprintf("Dropdown not found: %s", field), nil
	}
	if _, err := loc.SelectOption(playwright.SelectOptionValues{
		ValuesOrLabels: &[]string{value},
	}); err != nil {
		return "", fmt.Errorf("browser: select %s in %s: %w", value, field, err)
	}
	return fmt.Sprintf("Selected %s in %s", value, field), nil
}

func (e *Executor) uploadFile(field, fileType string) (string, error) {
	path := e.resumePath
	if fileType == "cover_letter" {
		path = e.coverLetterPath
	}
	if path == "" {
		return fmt.Sprintf("No %s file configured", fileType), nil
	}
	loc, ok := e.firstMatch(
		e.page.GetByLabel(field),
		e.page.Locator(fmt.Sprintf(`[name=%q]`, field)),
		e.page.Locator(field),
	)
	if !ok {
		return fmt.Sprintf("File input not found: %s", field), nil
	}
	if err := loc.SetInputFiles(path); err != nil {
		return "", fmt.Errorf("browser: upload %s to %s: %w", fileType, field, err)
	}
	return fmt.Sprintf("Uploaded %s to %s", fileType, field), nil
}

func (e *Executor) scroll(direction string) (string, error) {
	delta := scrollDelta
	if direction == "up" {
		delta = -scrollDelta
	}
	if _, err := e.page.Evaluate(fmt.Sprintf("window.scrollBy(0, %d)", delta)); err != nil {
		return "", fmt.Errorf("browser: scroll %s: %w", direction, err)
	}
	return fmt.Sprintf("Scrolled %s", direction), nil
}

func (e *Executor) wait(seconds int) (string, error) {
	err := e.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: playwright.Float(float64(seconds) * 1000),
	})
	if err != nil {
		// Pages with long-polling never go network idle; a plain
		// sleep is the agreed fallback.
		time.Sleep(time.Duration(seconds) * time.Second)
	}
	return fmt.Sprintf("Waited %ds", seconds), nil
}

func (e *Executor) askUser(ctx context.Context, question string) (string, error) {
	resp, err := e.ui.AskFreeText(ctx, "agent_question", question)
	if err != nil {
		return "", fmt.Errorf("browser: ask user: %w", err)
	}
	return resp.Text, nil
}

func (e *Executor) reportStatus(ctx context.Context, message string) (string, error) {
	if err := e.ui.SendInfo(ctx, message); err != nil {
		return "", fmt.Errorf("browser: report status: %w", err)
	}
	return "Status sent", nil
}

// firstMatch returns the first locator in the chain that matches at
// least one element. Locator errors (e.g. an unparsable selector) count
// as a miss so the chain can keep going.
func (e *Executor) firstMatch(candidates ...playwright.Locator) (playwright.Locator, bool) {
	for _, loc := range candidates {
		n, err := loc.Count()
		if err == nil && n > 0 {
			return loc.First(), true
		}
	}
	return nil, false
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

func intArg(call models.ToolCall, key string, def int) int {
	switch v := call.Arguments[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}
