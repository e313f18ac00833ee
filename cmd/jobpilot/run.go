// run.go contains the command handlers and the shared wiring that
// assembles one application run (browser session, tool executor, agent,
// orchestrator).
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"

	"github.com/jobpilot/jobpilot/internal/agent"
	"github.com/jobpilot/jobpilot/internal/apply"
	"github.com/jobpilot/jobpilot/internal/artifacts"
	"github.com/jobpilot/jobpilot/internal/browser"
	"github.com/jobpilot/jobpilot/internal/config"
	"github.com/jobpilot/jobpilot/internal/facade"
	"github.com/jobpilot/jobpilot/internal/interaction"
	"github.com/jobpilot/jobpilot/internal/llm"
	"github.com/jobpilot/jobpilot/internal/runtime"
	"github.com/jobpilot/jobpilot/internal/store"
	"github.com/jobpilot/jobpilot/internal/telegram"
	"github.com/jobpilot/jobpilot/pkg/models"
)

// applicationRunner builds everything a single application attempt
// needs. A fresh browser session is launched per run and closed
// unconditionally when the run ends.
type applicationRunner struct {
	provider *config.Provider
	store    store.Store
	clock    runtime.Clock
	ids      runtime.IDGenerator
	logger   *slog.Logger
	logsDir  string
	headless bool

	// forceDebug overrides config debug_mode when set (CLI --debug).
	forceDebug bool

	// companyName and jobTitle override URL-derived values when set.
	companyName string
	jobTitle    string
}

func (r *applicationRunner) Run(ctx context.Context, ui interaction.UserInteraction, jobURL string) (models.ApplicationRecord, error) {
	cfg, err := r.provider.Config()
	if err != nil {
		return models.ApplicationRecord{}, err
	}
	profile, err := r.provider.Profile()
	if err != nil {
		return models.ApplicationRecord{}, err
	}
	resume, err := r.provider.Resume()
	if err != nil {
		return models.ApplicationRecord{}, err
	}

	debug := cfg.DebugMode || r.forceDebug
	run := models.RunContext{RunID: r.ids.NewRunID(), IsDebug: debug}

	session, err := browser.NewSession(r.headless)
	if err != nil {
		return models.ApplicationRecord{}, err
	}
	defer func() {
		if err := session.Close(); err != nil {
			r.logger.Warn("browser close failed", "run_id", run.RunID, "error", err)
		}
	}()

	coverLetter := ""
	if len(resume.CoverLetterPaths) > 0 {
		coverLetter = resume.CoverLetterPaths[0]
	}
	executor := browser.NewExecutor(session.Page(), ui, resume.PrimaryResumePath, coverLetter)

	artifactStore := artifacts.NewFileStore(r.logsDir)
	recorder := artifacts.NewRunManager(artifactStore, executor, run)

	client := llm.NewOpenAIClient(cfg.LLMKey, cfg.LLMBaseURL, "")
	ag := agent.New(client, executor, r.logger, agent.WithStepRecorder(recorder))

	company := r.companyName
	if company == "" {
		company = telegram.CompanyNameFromURL(jobURL)
	}
	job := models.JobPostingRef{
		CompanyName: company,
		JobTitle:    r.jobTitle,
		JobURL:      jobURL,
	}

	svc := apply.NewService(r.store, artifactStore, r.clock, r.ids, r.logger)
	return svc.ApplyToJob(ctx, ag, ui, job, profile, resume, run)
}

// -- handlers ----------------------------------------------------------

func runServe(ctx context.Context, flags *rootFlags, headless bool) error {
	provider := config.NewProvider(flags.configDir)
	if errs := provider.Validate(); len(errs) > 0 {
		return fmt.Errorf("configuration invalid:\n  %s", strings.Join(errs, "\n  "))
	}
	cfg, err := provider.Config()
	if err != nil {
		return err
	}

	st, err := store.NewSQLiteStore(flags.dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	logger := slog.Default()
	runner := &applicationRunner{
		provider: provider,
		store:    st,
		clock:    runtime.SystemClock{},
		ids:      runtime.UUIDGenerator{},
		logger:   logger,
		logsDir:  flags.logsDir,
		headless: headless,
	}

	var dispatcher *telegram.Dispatcher
	b, err := bot.New(cfg.BotToken, bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *tgmodels.Update) {
		dispatcher.HandleUpdate(ctx, b, update)
	}))
	if err != nil {
		return fmt.Errorf("telegram bot: %w", err)
	}
	dispatcher = telegram.NewDispatcher(telegram.NewBotClient(b), cfg.ChatID, st, provider, runner, logger)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("bot started", "chat_id", cfg.ChatID)
	dispatcher.Announce(ctx)
	b.Start(ctx)
	logger.Info("bot stopped")
	return nil
}

func runApply(ctx context.Context, flags *rootFlags, jobURL, company, title string, debug, headless bool) error {
	provider := config.NewProvider(flags.configDir)
	if errs := provider.Validate(); len(errs) > 0 {
		return fmt.Errorf("configuration invalid:\n  %s", strings.Join(errs, "\n  "))
	}

	st, err := store.NewSQLiteStore(flags.dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	runner := &applicationRunner{
		provider:    provider,
		store:       st,
		clock:       runtime.SystemClock{},
		ids:         runtime.UUIDGenerator{},
		logger:      slog.Default(),
		logsDir:     flags.logsDir,
		headless:    headless,
		forceDebug:  debug,
		companyName: company,
		jobTitle:    title,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ui := interaction.NewConsole(nil, nil)
	rec, err := runner.Run(ctx, ui, jobURL)
	if err != nil {
		return err
	}
	fmt.Printf("Result: %s\n", rec.Status)
	if rec.FailureReason != "" {
		fmt.Printf("Reason: %s\n", rec.FailureReason)
	}
	return nil
}

func runApplications(ctx context.Context, flags *rootFlags, out io.Writer) error {
	st, err := store.NewSQLiteStore(flags.dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	records, err := facade.New(st).AppliedJobs(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(out, "No applications recorded.")
		return nil
	}
	for _, rec := range records {
		applied := "-"
		if !rec.AppliedAt.IsZero() {
			applied = rec.AppliedAt.UTC().Format(time.RFC3339)
		}
		reason := rec.FailureReason
		if reason == "" {
			reason = "-"
		}
		fmt.Fprintf(out, "%s | %s | %s | %s | %s\n",
			rec.CompanyName, applied, rec.JobURL, rec.Status, reason)
	}
	return nil
}

func runCredentials(ctx context.Context, flags *rootFlags, out io.Writer) error {
	st, err := store.NewSQLiteStore(flags.dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	views, err := facade.New(st).Credentials(ctx)
	if err != nil {
		return err
	}
	if len(views) == 0 {
		fmt.Fprintln(out, "No credentials stored.")
		return nil
	}
	for _, v := range views {
		fmt.Fprintf(out, "%s | %s | %s | %s\n", v.Portal, v.Tenant, v.Email, v.PasswordMasked)
	}
	return nil
}

func runConfigGet(ctx context.Context, flags *rootFlags, out io.Writer, key string) error {
	st, err := store.NewSQLiteStore(flags.dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	value, err := facade.New(st).ConfigValue(ctx, key)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, value)
	return nil
}

func runConfigSet(ctx context.Context, flags *rootFlags, out io.Writer, key, value string) error {
	st, err := store.NewSQLiteStore(flags.dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := facade.New(st).UpdateConfig(ctx, key, value); err != nil {
		return err
	}
	fmt.Fprintf(out, "updated %s\n", key)
	return nil
}

func runDoctor(ctx context.Context, flags *rootFlags, out io.Writer, offline bool) error {
	provider := config.NewProvider(flags.configDir)

	problems := provider.Validate()
	if len(problems) == 0 {
		fmt.Fprintln(out, "Configuration files: OK")
	} else {
		fmt.Fprintln(out, "Configuration files:")
		for _, p := range problems {
			fmt.Fprintf(out, "  - %s\n", p)
		}
	}

	if !offline && len(problems) == 0 {
		res := provider.ValidateConnectivity(ctx)
		if res.OK() {
			fmt.Fprintf(out, "Connectivity: OK (bot @%s)\n", res.BotUsername)
		} else {
			fmt.Fprintln(out, "Connectivity:")
			for _, e := range res.Errors {
				fmt.Fprintf(out, "  - %s\n", e)
			}
			problems = append(problems, res.Errors...)
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%d problem(s) found", len(problems))
	}
	return nil
}
