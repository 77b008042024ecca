// Package drafting holds the prompt shared by every model-backed
// Drafter implementation.
package drafting

import (
	"fmt"
	"strings"

	"github.com/liendesk/collections-tracker/internal/core"
	"github.com/liendesk/collections-tracker/internal/utils"
)

// SystemInstruction frames every drafting call.
const SystemInstruction = "You draft professional collection emails for a medical lien office. " +
	"Respond with the email body only, plain text, no subject line, no commentary."

var kindInstructions = map[core.DraftKind]string{
	core.DraftFollowUp: "Write a courteous follow-up asking the attorney's office for an " +
		"update on the case and whether any documentation is needed from us.",
	core.DraftStatusRequest: "Write a concise request for the current status of the case, " +
		"including whether it has settled or is still being negotiated.",
	core.DraftStatuteInquiry: "Write a firm but professional inquiry noting the age of the " +
		"injury date and asking whether suit has been filed or the statute of limitations " +
		"has been addressed.",
}

// BuildPrompt renders the drafting instruction for one case. History is
// truncated to maxHistorySize bytes so long threads cannot blow past
// model input limits.
func BuildPrompt(req core.DraftRequest, maxHistorySize int) string {
	var sb strings.Builder

	instruction, ok := kindInstructions[req.Kind]
	if !ok {
		instruction = kindInstructions[core.DraftFollowUp]
	}
	sb.WriteString(instruction)
	sb.WriteString("\n\nCase details:\n")
	fmt.Fprintf(&sb, "- PV number: %s\n", req.Case.PV)
	fmt.Fprintf(&sb, "- Patient: %s\n", req.Case.Name)
	if req.Case.LawFirm != "" {
		fmt.Fprintf(&sb, "- Law firm: %s\n", req.Case.LawFirm)
	}
	if req.Case.DOI != "" {
		fmt.Fprintf(&sb, "- Date of injury: %s\n", req.Case.DOI)
	}
	if req.DaysSinceContact > 0 {
		fmt.Fprintf(&sb, "- Days since our last contact: %d\n", req.DaysSinceContact)
	}

	if len(req.History) > 0 {
		var hist strings.Builder
		hist.WriteString("\nRecent correspondence, newest first:\n")
		for _, rec := range req.History {
			fmt.Fprintf(&hist, "- [%s] %s: %s\n", rec.Date, rec.From,
				utils.SanitizeUTF8(rec.Subject+" "+rec.Snippet))
		}
		sb.WriteString(utils.Truncate(hist.String(), maxHistorySize))
	}

	sb.WriteString("\nWrite the email body now.")
	return sb.String()
}
