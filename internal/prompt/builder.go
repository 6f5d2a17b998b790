package prompt

import (
	"fmt"
	"strings"

	"github.com/upb/clearpath-assistant/models"
)

// HistoryTurns is how many recent turns are included in the prompt
const HistoryTurns = 4

const sectionRule = "========================"

const instructions = `• Use BOTH conversation history and documentation context.
• Answer using ONLY the documentation.
• Do NOT add extra troubleshooting steps beyond what is provided.

• Speak like a helpful support agent.
• Do NOT mention documentation or sources.
• Do NOT say "based on the documentation".
• Do NOT explain where the answer was found.

• If the answer is not clearly present, respond EXACTLY:

"` + RefusalText + `"

• Do NOT guess or invent features.
• Keep responses concise and professional.
• Use bullet points when helpful.`

// Build assembles the grounded prompt from recent history, shaped context
// and the user's query
func Build(history []models.ConversationTurn, chunks []models.Passage, query string) string {
	var b strings.Builder

	b.WriteString("You are ClearPath's AI Support Assistant.\n\n")
	b.WriteString("Use ONLY the official ClearPath documentation.\n\n")

	writeSection(&b, "Conversation History", FormatHistory(history))
	writeSection(&b, "Documentation Context", FormatContext(chunks))
	writeSection(&b, "User Question", query)
	writeSection(&b, "Instructions", "\n"+instructions)

	b.WriteString("Answer:\n")
	return b.String()
}

// FormatHistory renders the last HistoryTurns turns, oldest first
func FormatHistory(history []models.ConversationTurn) string {
	if len(history) > HistoryTurns {
		history = history[len(history)-HistoryTurns:]
	}
	lines := make([]string, len(history))
	for i, turn := range history {
		lines[i] = fmt.Sprintf("User: %s\nBot: %s", turn.User, turn.Bot)
	}
	return strings.Join(lines, "\n")
}

// FormatContext joins passage texts with blank lines
func FormatContext(chunks []models.Passage) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Text
	}
	return strings.Join(parts, "\n\n")
}

func writeSection(b *strings.Builder, title, body string) {
	b.WriteString(sectionRule + "\n")
	b.WriteString(title + "\n")
	b.WriteString(sectionRule + "\n")
	b.WriteString(body)
	b.WriteString("\n\n")
}
