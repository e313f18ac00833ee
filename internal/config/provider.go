// Package config reads config.json and profile.json from a config
// directory. Every accessor re-reads from disk, so edits take effect
// without restarting the bot. Validation is two-phase: Validate checks
// files and formats offline, ValidateConnectivity exercises the
// Telegram and LLM credentials over the network.
package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-telegram/bot"
	openai "github.com/sashabaranov/go-openai"

	"github.com/jobpilot/jobpilot/pkg/models"
)

var (
	requiredConfigKeys  = []string{"BOT_TOKEN", "CHAT_ID", "LLM_KEY", "LLM_BASE_URL"}
	requiredProfileKeys = []string{"name", "email"}

	placeholderPattern = regexp.MustCompile(`(?i)^YOUR_`)
	emailPattern       = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phonePattern       = regexp.MustCompile(`^\+?[\d\s\-()]{7,}$`)
)

// Provider reads configuration from a directory laid out as:
//
//	config.json
//	profile.json
//	resume/resume.pdf
//	cover_letter/cover_letter.pdf
type Provider struct {
	dir string

	// telegramServerURL overrides the Telegram API host for
	// connectivity checks. Empty selects the production host.
	telegramServerURL string
}

// Option configures a Provider.
type Option func(*Provider)

// WithTelegramServerURL points connectivity checks at an alternate
// Telegram API host.
func WithTelegramServerURL(url string) Option {
	return func(p *Provider) { p.telegramServerURL = url }
}

// NewProvider returns a Provider rooted at dir.
func NewProvider(dir string, opts ...Option) *Provider {
	p := &Provider{dir: dir}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Config reads and decodes config.json.
func (p *Provider) Config() (models.AppConfig, error) {
	raw, err := p.readJSON("config.json")
	if err != nil {
		return models.AppConfig{}, err
	}
	chatID, err := toInt64(raw["CHAT_ID"])
	if err != nil {
		return models.AppConfig{}, fmt.Errorf("config: CHAT_ID: %w", err)
	}
	debugMode, _ := raw["debug_mode"].(bool)
	return models.AppConfig{
		BotToken:   str(raw["BOT_TOKEN"]),
		ChatID:     chatID,
		LLMKey:     str(raw["LLM_KEY"]),
		LLMBaseURL: str(raw["LLM_BASE_URL"]),
		DebugMode:  debugMode,
	}, nil
}

// Profile reads and decodes profile.json.
func (p *Provider) Profile() (models.UserProfile, error) {
	raw, err := p.readJSON("profile.json")
	if err != nil {
		return models.UserProfile{}, err
	}
	return models.UserProfile{
		FullName: str(raw["name"]),
		Email:    str(raw["email"]),
		Phone:    str(raw["phone"]),
		Address:  str(raw["address"]),
	}, nil
}

// Resume returns the document paths and skills for the agent.
func (p *Provider) Resume() (models.ResumeData, error) {
	raw, err := p.readJSON("profile.json")
	if err != nil {
		return models.ResumeData{}, err
	}
	var skills []string
	if list, ok := raw["skills"].([]any); ok {
		for _, item := range list {
			if s, ok := item.(string); ok {
				skills = append(skills, s)
			}
		}
	}
	return models.ResumeData{
		PrimaryResumePath: p.ResumePath(),
		CoverLetterPaths:  []string{p.CoverLetterPath()},
		Skills:            skills,
	}, nil
}

// ResumePath is where the primary resume is expected.
func (p *Provider) ResumePath() string {
	return filepath.Join(p.dir, "resume", "resume.pdf")
}

// CoverLetterPath is where the cover letter is expected.
func (p *Provider) CoverLetterPath() string {
	return filepath.Join(p.dir, "cover_letter", "cover_letter.pdf")
}

// Validate checks both JSON files and the document layout without
// touching the network. It returns every problem found, not just the
// first.
func (p *Provider) Validate() []string {
	var errors []string

	configData := p.validateJSONFile("config.json", requiredConfigKeys, &errors)
	profileData := p.validateJSONFile("profile.json", requiredProfileKeys, &errors)

	if configData != nil {
		errors = append(errors, validateConfigFormats(configData)...)
	}
	if profileData != nil {
		errors = append(errors, validateProfileFormats(profileData)...)
	}

	if !isFile(p.ResumePath()) {
		errors = append(errors, fmt.Sprintf("Resume not found at %s. Place your resume.pdf in the resume/ folder.", p.ResumePath()))
	}
	if !isFile(p.CoverLetterPath()) {
		errors = append(errors, fmt.Sprintf("Cover letter not found at %s. Place your cover_letter.pdf in the cover_letter/ folder.", p.CoverLetterPath()))
	}
	return errors
}

// ConnectivityResult is the outcome of ValidateConnectivity: the errors
// found plus the bot username when the Telegram check passed.
type ConnectivityResult struct {
	Errors      []string
	BotUsername string
}

// OK reports whether every check passed.
func (r ConnectivityResult) OK() bool { return len(r.Errors) == 0 }

// ValidateConnectivity verifies the bot token and LLM key against their
// live endpoints. The two checks run concurrently.
func (p *Provider) ValidateConnectivity(ctx context.Context) ConnectivityResult {
	cfg, err := p.Config()
	if err != nil {
		return ConnectivityResult{Errors: []string{err.Error()}}
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		errors   []string
		username string
	)
	report := func(msg string) {
		mu.Lock()
		errors = append(errors, msg)
		mu.Unlock()
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		name, err := p.checkTelegram(ctx, cfg.BotToken)
		if err != nil {
			report(fmt.Sprintf("Telegram BOT_TOKEN check failed: %v. Get a valid token from @BotFather.", err))
			return
		}
		mu.Lock()
		username = name
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		if err := p.checkLLM(ctx, cfg.LLMKey, cfg.LLMBaseURL); err != nil {
			report(err.Error())
		}
	}()
	wg.Wait()

	sort.Strings(errors)
	return ConnectivityResult{Errors: errors, BotUsername: username}
}

func (p *Provider) checkTelegram(ctx context.Context, token string) (string, error) {
	opts := []bot.Option{bot.WithSkipGetMe()}
	if p.telegramServerURL != "" {
		opts = append(opts, bot.WithServerURL(p.telegramServerURL))
	}
	b, err := bot.New(token, opts...)
	if err != nil {
		return "", err
	}
	me, err := b.GetMe(ctx)
	if err != nil {
		return "", err
	}
	return me.Username, nil
}

func (p *Provider) checkLLM(ctx context.Context, key, baseURL string) error {
	cfg := openai.DefaultConfig(key)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	client := openai.NewClientWithConfig(cfg)
	if _, err := client.ListModels(ctx); err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == 401 {
			return fmt.Errorf("LLM key rejected: 401 Unauthorized. Check LLM_KEY in config.json")
		}
		return fmt.Errorf("LLM connectivity failed: %v", err)
	}
	return nil
}

// -- offline validation ------------------------------------------------

func (p *Provider) validateJSONFile(name string, requiredKeys []string, errors *[]string) map[string]any {
	path := filepath.Join(p.dir, name)
	if !isFile(path) {
		*errors = append(*errors, "Missing file: "+path)
		return nil
	}
	data, err := p.readJSON(name)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("Cannot read %s: %v", path, err))
		return nil
	}
	var missing []string
	for _, key := range requiredKeys {
		if _, ok := data[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		*errors = append(*errors, fmt.Sprintf("%s missing keys: %s", name, strings.Join(missing, ", ")))
		return nil
	}
	return data
}

func validateConfigFormats(data map[string]any) []string {
	var errors []string

	token := str(data["BOT_TOKEN"])
	if token == "" || placeholderPattern.MatchString(token) {
		errors = append(errors, "BOT_TOKEN is a placeholder. Get a real token from @BotFather on Telegram.")
	}

	chatID := str(data["CHAT_ID"])
	if chatID == "" {
		if n, err := toInt64(data["CHAT_ID"]); err == nil {
			chatID = strconv.FormatInt(n, 10)
		}
	}
	if !isNumeric(strings.TrimPrefix(chatID, "-")) {
		errors = append(errors, "CHAT_ID must be numeric. Send /start to your bot and check the chat ID.")
	}

	llmKey := str(data["LLM_KEY"])
	if strings.Contains(strings.ToUpper(llmKey), "YOUR") {
		errors = append(errors, "LLM_KEY is a placeholder. Set your real API key.")
	} else if !strings.HasPrefix(llmKey, "sk-") || len(llmKey) < 10 {
		errors = append(errors, "LLM_KEY must start with 'sk-' and be at least 10 characters.")
	}

	if !strings.HasPrefix(str(data["LLM_BASE_URL"]), "https://") {
		errors = append(errors, "LLM_BASE_URL must start with 'https://'.")
	}

	if v, ok := data["debug_mode"]; ok {
		if _, isBool := v.(bool); !isBool {
			errors = append(errors, "debug_mode must be a boolean (true/false), not a string.")
		}
	}
	return errors
}

func validateProfileFormats(data map[string]any) []string {
	var errors []string

	name := str(data["name"])
	if name == "" || name == "Your Full Name" {
		errors = append(errors, "profile.json: name is a placeholder. Enter your real name.")
	}

	email := str(data["email"])
	if !emailPattern.MatchString(email) {
		errors = append(errors, fmt.Sprintf("profile.json: email %q is not a valid email address.", email))
	} else if email == "your@email.com" {
		errors = append(errors, "profile.json: email is a placeholder. Enter your real email.")
	}

	if phone := str(data["phone"]); phone != "" && !phonePattern.MatchString(phone) {
		errors = append(errors, fmt.Sprintf("profile.json: phone %q is not a valid phone number.", phone))
	}
	return errors
}

// -- helpers -----------------------------------------------------------

func (p *Provider) readJSON(name string) (map[string]any, error) {
	data, err := os.ReadFile(filepath.Join(p.dir, name))
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", name, err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", name, err)
	}
	return out, nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case float64:
		return int64(n), nil
	case string:
		return strconv.ParseInt(n, 10, 64)
	default:
		return 0, fmt.Errorf("config: value %v is not numeric", v)
	}
}
