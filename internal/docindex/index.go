// Package docindex renders the README manifest written next to synced
// documents.
package docindex

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dmitrijs2005/docsync/internal/client/models"
	"github.com/dmitrijs2005/docsync/internal/mdcodec"
)

// RootGroup labels documents without a folder.
const RootGroup = "(root)"

// Build renders one Markdown list per folder. Groups are ordered by folder
// name with the root group first; documents within a group by title, then
// id. The output depends only on the map's contents.
func Build(docs map[string]models.Document) string {
	groups := make(map[string][]models.Document)
	for _, d := range docs {
		folder := mdcodec.SanitizeFolder(d.FolderPath)
		groups[folder] = append(groups[folder], d)
	}

	folders := make([]string, 0, len(groups))
	for f := range groups {
		folders = append(folders, f)
	}
	sort.Strings(folders)

	var b strings.Builder
	b.WriteString("# Documents\n\n")
	fmt.Fprintf(&b, "Total: %d documents in %d folders\n", len(docs), len(folders))

	for _, folder := range folders {
		list := groups[folder]
		sort.Slice(list, func(i, j int) bool {
			if list[i].Title != list[j].Title {
				return list[i].Title < list[j].Title
			}
			return list[i].ID < list[j].ID
		})

		name := folder
		if name == "" {
			name = RootGroup
		}
		fmt.Fprintf(&b, "\n## %s\n\n", name)

		for _, d := range list {
			b.WriteString(entry(folder, d))
		}
	}
	return b.String()
}

func entry(folder string, d models.Document) string {
	title := d.Title
	if strings.TrimSpace(title) == "" {
		title = "Untitled"
	}
	link := mdcodec.SanitizeFilename(d.Title) + ".md"
	if folder != "" {
		link = folder + "/" + link
	}

	line := fmt.Sprintf("- [%s](%s)", title, link)
	if d.Category != "" {
		line += fmt.Sprintf(" `%s`", d.Category)
	}
	if len(d.Tags) > 0 {
		tags := make([]string, len(d.Tags))
		for i, t := range d.Tags {
			tags[i] = "#" + t
		}
		line += " " + strings.Join(tags, " ")
	}
	return line + "\n"
}
