package mdcodec

import (
	"regexp"
	"strings"
	"unicode"
)

// MaxFilenameLength caps a sanitized path segment, in runes.
const MaxFilenameLength = 200

const forbiddenChars = `/\:*?"<>|`

var underscores = regexp.MustCompile(`_+`)

// SanitizeFilename maps any title onto a valid remote path segment: forbidden
// path characters and whitespace become '_', runs of '_' collapse, and the
// result is capped at MaxFilenameLength runes. An empty result is "untitled".
func SanitizeFilename(title string) string {
	var b strings.Builder
	for _, r := range title {
		switch {
		case strings.ContainsRune(forbiddenChars, r), unicode.IsSpace(r), unicode.IsControl(r):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}

	s := strings.Trim(underscores.ReplaceAllString(b.String(), "_"), "_")
	if r := []rune(s); len(r) > MaxFilenameLength {
		s = strings.TrimRight(string(r[:MaxFilenameLength]), "_")
	}
	if s == "" || s == "." || s == ".." {
		return "untitled"
	}
	return s
}

// SanitizeFolder sanitizes each segment of a slash-separated folder path and
// drops empty segments.
func SanitizeFolder(folder string) string {
	var segs []string
	for _, seg := range strings.FieldsFunc(folder, func(r rune) bool { return r == '/' || r == '\\' }) {
		if strings.TrimSpace(seg) == "" || seg == "." || seg == ".." {
			continue
		}
		segs = append(segs, SanitizeFilename(seg))
	}
	return strings.Join(segs, "/")
}
