package notify

import (
	"fmt"
	"strings"

	"warden/internal/checker"
	"warden/internal/report"
)

const userAgent = "Warden-Go/0.1.0"

// maxBodyFindings caps how many findings are rendered into a channel
// message body. The full report is only carried by the webhook channel.
const maxBodyFindings = 10

func messageTitle(rep *report.Report) string {
	return fmt.Sprintf("Warden - %s", strings.ToUpper(rep.OverallSeverity.String()))
}

func messageBody(rep *report.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s (%s)\n", severityEmoji(rep.OverallSeverity), rep.Path, rep.EventKind)
	fmt.Fprintf(&b, "%d finding(s)", len(rep.Findings))
	if fixes := rep.FixesApplied(); fixes > 0 {
		fmt.Fprintf(&b, ", %d fix(es) applied", fixes)
	}
	b.WriteString("\n")
	for i, f := range rep.Findings {
		if i == maxBodyFindings {
			fmt.Fprintf(&b, "... and %d more\n", len(rep.Findings)-maxBodyFindings)
			break
		}
		fmt.Fprintf(&b, "[%s] %s: %s", f.Severity, f.CheckerID, f.Message)
		if f.Line > 0 {
			fmt.Fprintf(&b, " (line %d)", f.Line)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func severityEmoji(sev checker.Severity) string {
	switch sev {
	case checker.SeverityCritical:
		return "🚨"
	case checker.SeverityError:
		return "❌"
	case checker.SeverityWarning:
		return "⚠️"
	default:
		return "ℹ️"
	}
}

// severityColor returns the decimal RGB value used by Discord embeds.
func severityColor(sev checker.Severity) int {
	switch sev {
	case checker.SeverityCritical:
		return 0x992d22
	case checker.SeverityError:
		return 0xe74c3c
	case checker.SeverityWarning:
		return 0xf1c40f
	default:
		return 0x3498db
	}
}

// severityHex returns the hex theme color used by Teams message cards.
func severityHex(sev checker.Severity) string {
	return fmt.Sprintf("%06x", severityColor(sev))
}
