package drafting

import (
	"strings"
	"testing"

	"github.com/liendesk/collections-tracker/internal/core"
)

func TestBuildPrompt(t *testing.T) {
	req := core.DraftRequest{
		Case: core.CaseRecord{
			PV:      "1001",
			Name:    "SMITH, JOHN",
			LawFirm: "Firm LLP",
			DOI:     "2022-03-15",
		},
		Kind:             core.DraftStatuteInquiry,
		DaysSinceContact: 95,
		History: []core.EmailRecord{
			{From: "attorney@firm.example", Subject: "Re: PV 1001", Snippet: "still negotiating", Date: "Wed, 15 Jan 2025 10:30:00 +0000"},
		},
	}

	prompt := BuildPrompt(req, 4096)

	for _, want := range []string{"1001", "SMITH, JOHN", "Firm LLP", "2022-03-15", "95", "statute"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if !strings.Contains(prompt, "still negotiating") {
		t.Errorf("prompt missing correspondence history")
	}
}

func TestBuildPromptUnknownKindFallsBack(t *testing.T) {
	req := core.DraftRequest{Case: core.CaseRecord{PV: "1"}, Kind: core.DraftKind("nonsense")}
	prompt := BuildPrompt(req, 0)
	if !strings.Contains(prompt, "follow-up") {
		t.Errorf("unknown kind must fall back to the follow-up instruction")
	}
}

func TestBuildPromptTruncatesHistory(t *testing.T) {
	var history []core.EmailRecord
	for i := 0; i < 200; i++ {
		history = append(history, core.EmailRecord{
			From:    "attorney@firm.example",
			Subject: strings.Repeat("long subject ", 20),
		})
	}
	req := core.DraftRequest{Case: core.CaseRecord{PV: "1"}, Kind: core.DraftFollowUp, History: history}

	prompt := BuildPrompt(req, 1024)
	if len(prompt) > 4096 {
		t.Errorf("history not truncated, prompt is %d bytes", len(prompt))
	}
}
