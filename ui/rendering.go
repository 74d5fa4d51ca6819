package ui

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"tooldeck/model"
)

var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func (a *AppView) renderTimeline() string {
	if len(a.messages) == 0 {
		return "No messages yet. Start chatting!"
	}

	var content strings.Builder

	for _, msg := range a.messages {
		timestamp := DimStyle.Render(msg.Timestamp.Format("[15:04]"))

		switch msg.Role {
		case "user":
			content.WriteString(formatUserMessage(timestamp, UserStyle.Render("You"), msg.Content))

		case "assistant":
			role := AssistantStyle.Render("Assistant")
			body := msg.Content
			if msg.Provisional {
				if body == "" {
					body = a.spinner.View() + " Waiting for response..."
				} else {
					body += " " + a.spinner.View()
				}
			}
			content.WriteString(fmt.Sprintf("%s %s\n", timestamp, role))
			if msg.Provisional {
				for _, step := range msg.ThinkingSteps {
					content.WriteString(DimStyle.Render("· " + step.Text))
					content.WriteString("\n")
				}
			}
			content.WriteString(body)
			content.WriteString("\n\n")

		default:
			content.WriteString(fmt.Sprintf("%s %s\n%s\n\n", timestamp, DimStyle.Render("System"), msg.Content))
		}
	}

	return content.String()
}

// formatUserMessage renders a user message with a vertical bar gutter.
func formatUserMessage(timestamp, role, content string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s %s\n", timestamp, role))
	for _, line := range strings.Split(content, "\n") {
		b.WriteString(UserStyle.Render("┃ "))
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

// renderExecLog renders the execution ledger newest-first: status, tool,
// duration and a truncated output column sized to the window.
func (a *AppView) renderExecLog() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Execution Log"))
	b.WriteString("\n\n")

	if len(a.records) == 0 {
		b.WriteString(DimStyle.Render("No tool executions yet."))
		return b.String()
	}

	const toolWidth = 20
	outputWidth := a.width - toolWidth - 24
	if outputWidth < 10 {
		outputWidth = 10
	}

	for _, rec := range a.records {
		b.WriteString(fmt.Sprintf("%s %s %s %s\n",
			statusBadge(rec.Status),
			padCell(rec.ToolName, toolWidth),
			DimStyle.Render(padCell(recordDuration(rec), 8)),
			padCell(recordSummary(rec), outputWidth),
		))
	}

	return b.String()
}

func statusBadge(status model.ExecutionStatus) string {
	switch status {
	case model.StatusSuccess:
		return SuccessStyle.Render("✓")
	case model.StatusError:
		return ErrorStyle.Render("✗")
	default:
		return PendingStyle.Render("…")
	}
}

// padCell pads or truncates to an exact display width, emoji-safe.
func padCell(text string, width int) string {
	if runewidth.StringWidth(text) > width {
		return runewidth.Truncate(text, width, "...")
	}
	return text + strings.Repeat(" ", width-runewidth.StringWidth(text))
}

func recordDuration(rec model.ExecutionRecord) string {
	if pt := rec.ProcessingTime(); pt >= 0 {
		return formatDuration(time.Duration(pt * float64(time.Second)))
	}
	if rec.EndTime != nil {
		return formatDuration(rec.EndTime.Sub(rec.StartTime))
	}
	return "-"
}

func recordSummary(rec model.ExecutionRecord) string {
	if rec.Status == model.StatusError {
		if errMsg, ok := rec.Metrics["error"].(string); ok {
			return errMsg
		}
	}
	return strings.ReplaceAll(rec.Output, "\n", " ")
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
}

func (a *AppView) renderModelPicker() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Models"))
	b.WriteString("\n\n")

	if len(a.modelChoices) == 0 {
		b.WriteString(DimStyle.Render("No models available."))
		return b.String()
	}

	for i, m := range a.modelChoices {
		marker := "  "
		name := m.Name
		if i == a.modelCursor {
			marker = "▸ "
			name = AssistantStyle.Render(name)
		}
		b.WriteString(marker + name)
		if m.Name == a.modelName {
			b.WriteString(SuccessStyle.Render(" (current)"))
		}
		if m.Size > 0 {
			b.WriteString(DimStyle.Render("  " + formatBytes(m.Size)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (a *AppView) renderSearchResults() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Search: " + a.searchQuery))
	b.WriteString("\n\n")

	if len(a.searchMatches) == 0 {
		b.WriteString(DimStyle.Render("No matches."))
		return b.String()
	}

	for _, m := range a.searchMatches {
		role := AssistantStyle.Render(m.Role)
		if m.Role == "user" {
			role = UserStyle.Render(m.Role)
		}
		b.WriteString(fmt.Sprintf("%s %s %s\n",
			DimStyle.Render(m.Timestamp.Format("[Jan 02 15:04]")),
			role,
			m.Preview,
		))
	}
	return b.String()
}

// pullStatus renders model pull progress for the status line.
func pullStatus(name string, p model.PullProgress) string {
	if p.Total > 0 {
		pct := p.Completed * 100 / p.Total
		return fmt.Sprintf("Pulling %s: %d%%", name, pct)
	}
	if p.Status != "" {
		return "Pulling " + name + ": " + p.Status
	}
	return "Pulling " + name + "..."
}

func formatBytes(n int64) string {
	const gb = 1 << 30
	const mb = 1 << 20
	switch {
	case n >= gb:
		return fmt.Sprintf("%.1fGB", float64(n)/gb)
	case n >= mb:
		return fmt.Sprintf("%dMB", n/mb)
	default:
		return fmt.Sprintf("%dB", n)
	}
}

func (a *AppView) statusLine() string {
	left := StatusStyle.Render(fmt.Sprintf(" %s", a.modelName))
	if a.busy {
		left += " " + a.spinner.View()
	}
	if a.flash != "" {
		left += "  " + PendingStyle.Render(a.flash)
	}

	right := StatusStyle.Render(fmt.Sprintf("%d executions ", len(a.records)))

	gap := a.width - runewidth.StringWidth(stripANSI(left)) - runewidth.StringWidth(stripANSI(right))
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func (a *AppView) footer() string {
	if a.showModels {
		return FormatFooter("enter", "Select", "esc", "Close", "ctrl+c", "Quit")
	}
	if a.searchMode || a.showSearch {
		return FormatFooter("enter", "Search", "esc", "Close", "ctrl+c", "Quit")
	}
	if a.showExecLog {
		return FormatFooter("ctrl+l", "Chat", "esc", "Close", "ctrl+c", "Quit")
	}
	if a.busy {
		return FormatFooter("esc", "Cancel", "ctrl+l", "Log", "ctrl+c", "Quit")
	}
	parts := []string{"enter", "Send", "ctrl+l", "Log", "ctrl+y", "Copy"}
	if a.FetchModels != nil {
		parts = append(parts, "ctrl+o", "Models")
	}
	if a.Search != nil {
		parts = append(parts, "ctrl+f", "Search")
	}
	parts = append(parts, "ctrl+c", "Quit")
	return FormatFooter(parts...)
}

// stripANSI removes ANSI escape codes for accurate width calculation
func stripANSI(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}
