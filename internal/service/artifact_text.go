package service

import (
	"strings"
	"time"

	"github.com/target/veille-api/internal/domain/model"
)

const headerRuleWidth = 80

// RenderTextArtifact builds the persisted text artifact: a generation header, the subject, a rule,
// then the extracted research text.
func RenderTextArtifact(createdAt time.Time, subject, text string) string {
	var b strings.Builder
	b.Grow(len(subject) + len(text) + 160)
	b.WriteString("--- Result generated on ")
	b.WriteString(createdAt.UTC().Format(model.TimestampLayout))
	b.WriteString(" (UTC) ---\n\n")
	b.WriteString("Subject: ")
	b.WriteString(subject)
	b.WriteString("\n\n")
	b.WriteString(strings.Repeat("=", headerRuleWidth))
	b.WriteString("\n\n")
	b.WriteString(text)
	return b.String()
}
