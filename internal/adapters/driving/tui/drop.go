package tui

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// parseDroppedPaths splits text pasted by a terminal when files are
// dropped onto it. Terminals quote or backslash-escape paths with spaces
// and some emit file:// URLs.
func parseDroppedPaths(s string) []string {
	var (
		paths   []string
		cur     strings.Builder
		quote   rune
		escaped bool
		inToken bool
	)
	flush := func() {
		if inToken {
			if p := normalisePath(cur.String()); p != "" {
				paths = append(paths, p)
			}
		}
		cur.Reset()
		inToken = false
	}

	for _, r := range s {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '\\':
			escaped = true
			inToken = true
		case r == '\'' || r == '"':
			quote = r
			inToken = true
		case unicode.IsSpace(r):
			flush()
		default:
			cur.WriteRune(r)
			inToken = true
		}
	}
	flush()
	return paths
}

func normalisePath(p string) string {
	if strings.HasPrefix(p, "file://") {
		if u, err := url.Parse(p); err == nil {
			p = u.Path
		}
	}
	return expandHome(p)
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// droppedFiles returns the pasted paths when the first names an existing
// regular file, which is how a drop differs from pasted question text.
func droppedFiles(s string) []string {
	paths := parseDroppedPaths(s)
	if len(paths) == 0 {
		return nil
	}
	info, err := os.Stat(paths[0])
	if err != nil || !info.Mode().IsRegular() {
		return nil
	}
	return paths
}
