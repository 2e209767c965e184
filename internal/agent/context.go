package agent

import (
	"strings"

	"github.com/chris/copiloto/internal/llm"
	"github.com/chris/copiloto/internal/notes"
)

// BuildSystemPrompt appends the user's notes to base. No notes, no change.
func BuildSystemPrompt(base string, list []notes.Note) string {
	if len(list) == 0 {
		return base
	}
	var b strings.Builder
	b.WriteString(base)
	b.WriteString("\n\n")
	b.WriteString(llm.NotesHeader)
	for _, n := range list {
		b.WriteString("\n- ")
		b.WriteString(n.Text)
	}
	return b.String()
}
