// Package chunks reassembles documents that the local store split into
// fragments.
package chunks

import (
	"cmp"
	"slices"
	"sort"
	"strings"

	"github.com/dmitrijs2005/docsync/internal/client/models"
)

// Separator joins chunk contents.
const Separator = "\n\n"

// Merge groups items by their original document id, orders each group by
// chunk index and concatenates the contents. Metadata comes from the first
// item in chunk order, so the result does not depend on input order. Merging
// an already merged set is a no-op.
func Merge(items []models.Document) map[string]models.Document {
	groups := make(map[string][]models.Document)
	for _, it := range items {
		id := it.GroupID()
		groups[id] = append(groups[id], it)
	}

	out := make(map[string]models.Document, len(groups))
	for id, group := range groups {
		out[id] = mergeGroup(id, group)
	}
	return out
}

// Sorted returns the merged documents ordered by id.
func Sorted(merged map[string]models.Document) []models.Document {
	docs := make([]models.Document, 0, len(merged))
	for _, d := range merged {
		docs = append(docs, d)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs
}

func mergeGroup(id string, group []models.Document) models.Document {
	slices.SortFunc(group, compareFragments)

	first := group[0]
	doc := models.Document{
		ID:         id,
		Title:      first.Title,
		Source:     first.Source,
		FolderPath: first.FolderPath,
		Tags:       first.Tags,
		Category:   first.Category,
		UploadedAt: first.UploadedAt,
		Remote:     first.Remote,
	}

	if len(group) == 1 {
		doc.Content = first.Content
		return doc
	}

	parts := make([]string, len(group))
	for i, c := range group {
		parts[i] = c.Content
	}
	doc.Content = strings.Join(parts, Separator)
	return doc
}

// compareFragments orders fragments by chunk index, then by every remaining
// field so that duplicates with differing metadata still sort the same way.
func compareFragments(a, b models.Document) int {
	return cmp.Or(
		cmp.Compare(a.Index(), b.Index()),
		strings.Compare(a.ID, b.ID),
		strings.Compare(a.Content, b.Content),
		strings.Compare(a.Title, b.Title),
		strings.Compare(a.Source, b.Source),
		strings.Compare(a.FolderPath, b.FolderPath),
		strings.Compare(a.Category, b.Category),
		slices.Compare(a.Tags, b.Tags),
		a.UploadedAt.Compare(b.UploadedAt),
	)
}
