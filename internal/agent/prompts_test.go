package agent

import (
	"strings"
	"testing"

	"github.com/jobpilot/jobpilot/pkg/models"
)

func TestSystemPromptPolicySections(t *testing.T) {
	for _, want := range []string{
		"Static fields",
		"Dynamic fields",
		"ask_user",
		"CAPTCHA HANDLING",
		"SUBMIT HANDLING",
		"Debug mode: final submit skipped",
		"account_email",
	} {
		if !strings.Contains(systemPrompt, want) {
			t.Fatalf("system prompt missing %q", want)
		}
	}
}

func TestBuildApplyTaskPromptDebugLines(t *testing.T) {
	profile := models.UserProfile{FullName: "Ada Lovelace", Email: "ada@example.com"}

	on := buildApplyTaskPrompt("https://x", "Acme", "SWE", profile, true, true, true)
	if !strings.Contains(on, "debug: true  (do NOT click the final submit button)") {
		t.Fatalf("debug prompt missing debug line:\n%s", on)
	}
	off := buildApplyTaskPrompt("https://x", "Acme", "SWE", profile, true, true, false)
	if !strings.Contains(off, "debug: false  (click the final submit button when ready)") {
		t.Fatalf("live prompt missing debug line:\n%s", off)
	}
}

func TestBuildApplyTaskPromptProfileBlock(t *testing.T) {
	profile := models.UserProfile{
		FullName: "Ada Lovelace",
		Email:    "ada@example.com",
		Phone:    "+44 20 1234",
	}
	got := buildApplyTaskPrompt("https://x", "Acme", "SWE", profile, false, false, false)
	for _, want := range []string{`"full_name": "Ada Lovelace"`, `"email": "ada@example.com"`, `"phone": "+44 20 1234"`} {
		if !strings.Contains(got, want) {
			t.Fatalf("profile block missing %q:\n%s", want, got)
		}
	}
}
