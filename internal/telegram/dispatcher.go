package telegram

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"

	"github.com/jobpilot/jobpilot/internal/interaction"
	"github.com/jobpilot/jobpilot/internal/store"
	"github.com/jobpilot/jobpilot/pkg/models"
)

var urlPattern = regexp.MustCompile(`(?i)^https?://\S+`)

// statusListLimit caps the /status output.
const statusListLimit = 10

// replyQueueSize bounds answers buffered while a run is in flight.
const replyQueueSize = 16

// ApplyRunner executes one full application attempt for a staged URL.
// The dispatcher passes itself as the interaction channel so the agent's
// questions land in the same chat.
type ApplyRunner interface {
	Run(ctx context.Context, ui interaction.UserInteraction, jobURL string) (models.ApplicationRecord, error)
}

// ConfigReader exposes the live debug flag for /debug.
type ConfigReader interface {
	Config() (models.AppConfig, error)
}

// Dispatcher is the chat-side state machine. One job URL can be staged
// at a time; /apply consumes it and runs a single application, during
// which every incoming message is treated as the answer to the agent's
// current question.
type Dispatcher struct {
	client BotClient
	chatID int64
	apps   store.Applications
	cfg    ConfigReader
	runner ApplyRunner
	logger *slog.Logger

	mu       sync.Mutex
	lastURL  string
	applying bool
	replies  chan string
}

// NewDispatcher wires the dispatcher for one chat.
func NewDispatcher(client BotClient, chatID int64, apps store.Applications, cfg ConfigReader, runner ApplyRunner, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		client:  client,
		chatID:  chatID,
		apps:    apps,
		cfg:     cfg,
		runner:  runner,
		logger:  logger,
		replies: make(chan string, replyQueueSize),
	}
}

// Announce sends the startup banner.
func (d *Dispatcher) Announce(ctx context.Context) {
	d.send(ctx, "Bot started. Send a job URL, then /apply.")
}

// HandleUpdate is the bot's default handler. Messages from other chats
// are ignored.
func (d *Dispatcher) HandleUpdate(ctx context.Context, _ *bot.Bot, update *tgmodels.Update) {
	text, ok := d.extractText(update)
	if !ok {
		return
	}

	// While an application is running, any message is an answer to the
	// agent's current (or next) question.
	if d.deliverReply(text) {
		return
	}

	command := strings.ToLower(strings.Fields(text)[0])
	switch {
	case strings.HasPrefix(command, "/apply"):
		d.handleApply(ctx)
	case strings.HasPrefix(command, "/status"):
		d.handleStatus(ctx)
	case strings.HasPrefix(command, "/debug"):
		d.handleDebug(ctx)
	case strings.HasPrefix(command, "/help"):
		d.handleHelp(ctx)
	case urlPattern.MatchString(text):
		staged := strings.Fields(text)[0]
		d.mu.Lock()
		d.lastURL = staged
		d.mu.Unlock()
		d.send(ctx, fmt.Sprintf("URL received: %s\nSend /apply to start.", staged))
	default:
		d.send(ctx, "Unrecognized message. Send a job URL or /help for commands.")
	}
}

// -- command handlers --------------------------------------------------

func (d *Dispatcher) handleApply(ctx context.Context) {
	d.mu.Lock()
	if d.lastURL == "" {
		d.mu.Unlock()
		d.send(ctx, "No URL stored. Send a job URL first.")
		return
	}
	if d.applying {
		d.mu.Unlock()
		d.send(ctx, "An application is already in progress.")
		return
	}
	jobURL := d.lastURL
	d.lastURL = ""
	d.applying = true
	d.mu.Unlock()

	go func() {
		defer func() {
			d.mu.Lock()
			d.applying = false
			d.mu.Unlock()
			d.drainReplies()
		}()

		d.send(ctx, fmt.Sprintf("Starting application for %s ...", jobURL))
		rec, err := d.runner.Run(ctx, d, jobURL)
		if err != nil {
			d.logger.Error("apply command failed", "job_url", jobURL, "error", err)
			d.send(ctx, fmt.Sprintf("Application failed: %v", err))
			return
		}

		summary := fmt.Sprintf("Result: %s\nCompany: %s\nURL: %s",
			rec.Status, rec.CompanyName, rec.JobURL)
		if rec.FailureReason != "" {
			summary += "\nReason: " + rec.FailureReason
		}
		d.send(ctx, summary)
	}()
}

func (d *Dispatcher) handleStatus(ctx context.Context) {
	records, err := d.apps.ListApplications(ctx)
	if err != nil {
		d.logger.Error("status listing failed", "error", err)
		d.send(ctx, fmt.Sprintf("Could not list applications: %v", err))
		return
	}
	if len(records) == 0 {
		d.send(ctx, "No applications yet.")
		return
	}
	if len(records) > statusListLimit {
		records = records[:statusListLimit]
	}
	var sb strings.Builder
	sb.WriteString("Recent applications:")
	for _, r := range records {
		fmt.Fprintf(&sb, "\n- [%s] %s: %s", r.Status, r.CompanyName, r.JobURL)
	}
	d.send(ctx, sb.String())
}

func (d *Dispatcher) handleDebug(ctx context.Context) {
	cfg, err := d.cfg.Config()
	if err != nil {
		d.send(ctx, fmt.Sprintf("Could not read config: %v", err))
		return
	}
	state := "OFF"
	if cfg.DebugMode {
		state = "ON"
	}
	d.send(ctx, fmt.Sprintf("Debug mode is currently %s.\nToggle it by editing debug_mode in config.json.", state))
}

func (d *Dispatcher) handleHelp(ctx context.Context) {
	d.send(ctx, "Commands:\n"+
		"  Send a job URL — stores it for /apply\n"+
		"  /apply — apply to the last URL\n"+
		"  /status — list recent applications\n"+
		"  /debug — show debug mode status\n"+
		"  /help — this message")
}

// -- interaction.UserInteraction ---------------------------------------

func (d *Dispatcher) SendInfo(ctx context.Context, message string) error {
	return d.send(ctx, message)
}

func (d *Dispatcher) AskFreeText(ctx context.Context, questionID, prompt string) (interaction.FreeTextResponse, error) {
	if err := d.send(ctx, fmt.Sprintf("[Question: %s]\n%s", questionID, prompt)); err != nil {
		return interaction.FreeTextResponse{}, err
	}
	text, err := d.waitForReply(ctx)
	if err != nil {
		return interaction.FreeTextResponse{}, err
	}
	return interaction.FreeTextResponse{QuestionID: questionID, Text: text}, nil
}

func (d *Dispatcher) AskChoice(ctx context.Context, questionID, prompt string, options []string, allowMultiple bool) (interaction.ChoiceResponse, error) {
	if len(options) == 0 {
		return interaction.ChoiceResponse{QuestionID: questionID}, nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "[Question: %s]\n%s", questionID, prompt)
	for i, opt := range options {
		fmt.Fprintf(&sb, "\n  %d. %s", i+1, opt)
	}
	sb.WriteString("\nReply with the option text.")
	if err := d.send(ctx, sb.String()); err != nil {
		return interaction.ChoiceResponse{}, err
	}

	reply, err := d.waitForReply(ctx)
	if err != nil {
		return interaction.ChoiceResponse{}, err
	}

	var selected []string
	if allowMultiple {
		picked := map[string]bool{}
		for _, item := range strings.Split(reply, ",") {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				picked[trimmed] = true
			}
		}
		for _, opt := range options {
			if picked[opt] {
				selected = append(selected, opt)
			}
		}
	} else {
		selected = []string{options[0]}
		for _, opt := range options {
			if reply == opt {
				selected = []string{reply}
				break
			}
		}
	}
	return interaction.ChoiceResponse{QuestionID: questionID, SelectedOptions: selected}, nil
}

func (d *Dispatcher) SendImageAndAskText(ctx context.Context, questionID string, image []byte, prompt string) (interaction.FreeTextResponse, error) {
	_, err := d.client.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID: d.chatID,
		Photo: &tgmodels.InputFileUpload{
			Filename: "screenshot.png",
			Data:     bytes.NewReader(image),
		},
		Caption: prompt,
	})
	if err != nil {
		return interaction.FreeTextResponse{}, fmt.Errorf("telegram: send photo: %w", err)
	}
	text, err := d.waitForReply(ctx)
	if err != nil {
		return interaction.FreeTextResponse{}, err
	}
	return interaction.FreeTextResponse{QuestionID: questionID, Text: text}, nil
}

// -- reply plumbing ----------------------------------------------------

// deliverReply queues an incoming message for waitForReply while an
// application is in flight. Answers sent before the question is posted
// are kept and consumed in order.
func (d *Dispatcher) deliverReply(text string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.applying {
		return false
	}
	select {
	case d.replies <- text:
	default:
		d.logger.Warn("reply queue full, dropping message")
	}
	return true
}

func (d *Dispatcher) waitForReply(ctx context.Context) (string, error) {
	select {
	case text := <-d.replies:
		return text, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// drainReplies discards answers left over from a finished run so they
// cannot leak into the next run's first question.
func (d *Dispatcher) drainReplies() {
	for {
		select {
		case <-d.replies:
		default:
			return
		}
	}
}

// -- helpers -----------------------------------------------------------

func (d *Dispatcher) send(ctx context.Context, text string) error {
	_, err := d.client.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: d.chatID,
		Text:   text,
	})
	if err != nil {
		d.logger.Error("telegram send failed", "error", err)
	}
	return err
}

func (d *Dispatcher) extractText(update *tgmodels.Update) (string, bool) {
	if update == nil || update.Message == nil {
		return "", false
	}
	if update.Message.Chat.ID != d.chatID {
		return "", false
	}
	text := strings.TrimSpace(update.Message.Text)
	if text == "" {
		return "", false
	}
	return text, true
}

// CompanyNameFromURL derives a display company name from a job URL: the
// first hostname label with any www. prefix removed, title-cased.
func CompanyNameFromURL(jobURL string) string {
	u, err := url.Parse(jobURL)
	if err != nil || u.Hostname() == "" {
		return "Unknown"
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	label, _, _ := strings.Cut(host, ".")
	if label == "" {
		return "Unknown"
	}
	runes := []rune(label)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
