package handler

import (
	"fmt"
	"html"
	"strings"

	"github.com/pavelc4/aether-dl-bot/internal/media"
	"github.com/pavelc4/aether-dl-bot/internal/utils"
)

// ReferenceLinks renders one line per candidate, best first. The line of
// the candidate at path sent is marked.
func ReferenceLinks(candidates []media.Candidate, sent string) []string {
	lines := make([]string, len(candidates))
	for i, c := range candidates {
		line := fmt.Sprintf(`<a href="%s">%s</a> - %s`,
			html.EscapeString(c.SourceURL),
			c.Label(),
			utils.FormatBytes(uint64(c.Size)),
		)
		if sent != "" && c.Path == sent {
			line += " ← <i>this version</i>"
		}
		lines[i] = line
	}
	return lines
}

func Caption(links []string) string {
	if len(links) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("main link (best quality):\n")
	b.WriteString(links[0])
	if len(links) > 1 {
		b.WriteString("\n\nother links:\n")
		b.WriteString(strings.Join(links[1:], "\n"))
	}
	return b.String()
}

func OversizedText(ceilingMB int64, links []string) string {
	return fmt.Sprintf("video was downloaded, but it exceeds %dmb and Telegram doesn't allow sending such big files. you can use these links yourself:\n", ceilingMB) +
		strings.Join(links, "\n")
}
