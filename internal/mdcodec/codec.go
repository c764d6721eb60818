// Package mdcodec converts documents to and from the Markdown layout stored
// remotely:
//
//	# <title>
//
//	---
//	**출처:** <source>
//	**카테고리:** <category>
//	**폴더:** <folder>
//	**태그:** <tag>, <tag>
//	**업로드 일시:** <RFC 3339 timestamp>
//	---
//
//	<body>
//
// The metadata block is optional on decode. Labels are written in Korean and
// read in Korean or English.
package mdcodec

import (
	"path"
	"regexp"
	"strings"
	"time"
)

const (
	labelSource   = "출처"
	labelCategory = "카테고리"
	labelFolder   = "폴더"
	labelTags     = "태그"
	labelUploaded = "업로드 일시"

	labelFolderPath    = "폴더 경로"
	labelUploadedShort = "업로드"

	delimiter = "---"
)

type field int

const (
	fieldSource field = iota
	fieldCategory
	fieldFolder
	fieldTags
	fieldUploaded
)

var labels = map[string]field{
	labelSource:        fieldSource,
	"source":           fieldSource,
	labelCategory:      fieldCategory,
	"category":         fieldCategory,
	labelFolder:        fieldFolder,
	labelFolderPath:    fieldFolder,
	"folder":           fieldFolder,
	"folder path":      fieldFolder,
	labelTags:          fieldTags,
	"tags":             fieldTags,
	labelUploaded:      fieldUploaded,
	labelUploadedShort: fieldUploaded,
	"uploaded":         fieldUploaded,
	"uploaded at":      fieldUploaded,
}

var metaLine = regexp.MustCompile(`^\*\*(.+?):\*\*\s?(.*)$`)

var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

// Metadata is the subset of document fields the codec writes.
type Metadata struct {
	Source     string
	Category   string
	FolderPath string
	Tags       []string
	UploadedAt time.Time
}

// IsZero reports whether no field would be written.
func (m Metadata) IsZero() bool {
	return m.Source == "" && m.Category == "" && m.FolderPath == "" && len(m.Tags) == 0 && m.UploadedAt.IsZero()
}

// Decoded is the result of Decode.
type Decoded struct {
	Title    string
	Body     string
	Metadata Metadata
}

// Encode renders a document. The body is written verbatim.
func Encode(title, body string, m Metadata) string {
	var b strings.Builder

	b.WriteString("# ")
	b.WriteString(strings.Join(strings.Fields(title), " "))
	b.WriteString("\n\n")

	// An empty block keeps a body that itself starts with "---" from being
	// read back as metadata.
	if !m.IsZero() || startsWithDelimiter(body) {
		b.WriteString(delimiter + "\n")
		writeMeta(&b, labelSource, m.Source)
		writeMeta(&b, labelCategory, m.Category)
		writeMeta(&b, labelFolder, m.FolderPath)
		if len(m.Tags) > 0 {
			writeMeta(&b, labelTags, strings.Join(m.Tags, ", "))
		}
		if !m.UploadedAt.IsZero() {
			writeMeta(&b, labelUploaded, m.UploadedAt.UTC().Format(time.RFC3339))
		}
		b.WriteString(delimiter + "\n\n")
	}

	b.WriteString(body)
	return b.String()
}

func writeMeta(b *strings.Builder, label, value string) {
	value = strings.TrimSpace(strings.ReplaceAll(value, "\n", " "))
	if value == "" {
		return
	}
	b.WriteString("**" + label + ":** " + value + "\n")
}

func startsWithDelimiter(body string) bool {
	for _, line := range strings.Split(body, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		return strings.TrimSpace(line) == delimiter
	}
	return false
}

// Decode parses text read from sourcePath. When the text has no title line the
// title is fallbackTitle, or the file name without extension when that is
// empty too. A folder missing from the metadata block is inferred from the
// part of sourcePath between basePath and the file name.
func Decode(text, sourcePath, basePath, fallbackTitle string) Decoded {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	d := Decoded{Title: fallbackTitle}
	if d.Title == "" && sourcePath != "" {
		d.Title = strings.TrimSuffix(path.Base(sourcePath), path.Ext(sourcePath))
	}

	i := skipBlank(lines, 0)
	if i < len(lines) && strings.HasPrefix(lines[i], "# ") {
		if t := strings.TrimSpace(lines[i][2:]); t != "" {
			d.Title = t
		}
		i++
	}

	if j := skipBlank(lines, i); j < len(lines) && strings.TrimSpace(lines[j]) == delimiter {
		if end := closingDelimiter(lines, j+1); end >= 0 {
			d.Metadata = parseMeta(lines[j+1 : end])
			i = end + 1
		}
	}

	d.Body = strings.Join(lines[skipBlank(lines, i):], "\n")

	if d.Metadata.FolderPath == "" {
		d.Metadata.FolderPath = InferFolder(sourcePath, basePath)
	}
	return d
}

func skipBlank(lines []string, i int) int {
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	return i
}

func closingDelimiter(lines []string, from int) int {
	for k := from; k < len(lines); k++ {
		if strings.TrimSpace(lines[k]) == delimiter {
			return k
		}
	}
	return -1
}

func parseMeta(lines []string) Metadata {
	var m Metadata
	for _, line := range lines {
		match := metaLine.FindStringSubmatch(strings.TrimSpace(line))
		if match == nil {
			continue
		}
		f, ok := labels[strings.ToLower(strings.TrimSpace(match[1]))]
		if !ok {
			continue
		}
		value := strings.TrimSpace(match[2])
		switch f {
		case fieldSource:
			m.Source = value
		case fieldCategory:
			m.Category = value
		case fieldFolder:
			m.FolderPath = value
		case fieldTags:
			m.Tags = splitTags(value)
		case fieldUploaded:
			m.UploadedAt = parseTime(value)
		}
	}
	return m
}

func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func parseTime(s string) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// InferFolder returns the directory of sourcePath relative to basePath, or ""
// when sourcePath is not below basePath.
func InferFolder(sourcePath, basePath string) string {
	if sourcePath == "" {
		return ""
	}
	dir := path.Dir(strings.TrimPrefix(sourcePath, "/"))
	base := strings.Trim(basePath, "/")

	if base != "" {
		if dir == base {
			return ""
		}
		if !strings.HasPrefix(dir, base+"/") {
			return ""
		}
		dir = strings.TrimPrefix(dir, base+"/")
	}
	if dir == "." {
		return ""
	}
	return dir
}
