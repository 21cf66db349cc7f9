package bot

import (
	"fmt"
	"strings"

	"linksvault/internal/domain"
)

// maxListed bounds how many links a single /list reply shows.
const maxListed = 30

// parseCommand splits "/cmd@bot target rest of text" into its parts.
func parseCommand(text string) (cmd, target, rest string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", "", ""
	}
	cmd, _, _ = strings.Cut(fields[0], "@")
	if len(fields) > 1 {
		target = fields[1]
	}
	if len(fields) > 2 {
		rest = strings.Join(fields[2:], " ")
	}
	return cmd, target, rest
}

// extractURLs returns the tokens of text that look like web links, in order and deduplicated.
func extractURLs(text string) []string {
	var urls []string
	seen := make(map[string]bool)
	for _, field := range strings.Fields(text) {
		token := strings.TrimRight(field, ".,;:!?)]}>\"'")
		token = strings.TrimLeft(token, "([{<\"'")
		lower := strings.ToLower(token)
		if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") && !strings.HasPrefix(lower, "www.") {
			continue
		}
		if seen[token] {
			continue
		}
		seen[token] = true
		urls = append(urls, token)
	}
	return urls
}

func formatPreview(rec domain.PreviewRecord) string {
	var b strings.Builder
	b.WriteString(rec.Title)
	if rec.SiteName != "" {
		b.WriteString("\n")
		b.WriteString(rec.SiteName)
	}
	if rec.Description != "" {
		b.WriteString("\n\n")
		b.WriteString(rec.Description)
	}
	if rec.URL != "" {
		b.WriteString("\n\n")
		b.WriteString(rec.URL)
	}
	return b.String()
}

// formatList renders the collection using whatever previews are published so far.
func formatList(entries []domain.LinkEntry, lookup func(string) (domain.PreviewRecord, bool)) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your links (%d):\n", len(entries))

	for i, e := range entries {
		if i == maxListed {
			fmt.Fprintf(&b, "\n…and %d more", len(entries)-maxListed)
			break
		}
		title := e.Title
		if custom, ok := e.UserTitle(); ok {
			title = custom
		} else if rec, ok := lookup(e.URL); ok && rec.Title != "" {
			title = rec.Title
		}
		star := ""
		if e.IsFavorite {
			star = "★ "
		}
		fmt.Fprintf(&b, "\n%d. %s%s\n   %s", i+1, star, title, e.URL)
	}
	return b.String()
}
