package util

import "strings"

// ExtractSnippet returns up to maxLines lines of source centered on line
// (1-based).
func ExtractSnippet(content string, line, maxLines int) string {
	if maxLines <= 0 {
		maxLines = 4
	}
	lines := strings.Split(content, "\n")
	if line < 1 {
		line = 1
	}
	if line > len(lines) {
		line = len(lines)
	}
	s := max(0, line-1-maxLines/2)
	e := min(len(lines)-1, line-1+maxLines/2)
	return strings.Join(lines[s:e+1], "\n")
}
