package notify

import "strings"

// MergeRecipients returns team followed by recipients, blanks dropped and
// duplicates removed case-insensitively. Order of first appearance is kept.
func MergeRecipients(team []string, recipients []string) []string {
	seen := make(map[string]struct{}, len(team)+len(recipients))
	out := make([]string, 0, len(team)+len(recipients))
	for _, list := range [][]string{team, recipients} {
		for _, addr := range list {
			trimmed := strings.TrimSpace(addr)
			if trimmed == "" {
				continue
			}
			key := strings.ToLower(trimmed)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, trimmed)
		}
	}
	return out
}
