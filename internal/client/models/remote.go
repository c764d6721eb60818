package models

// RemoteFile is one version of a file in the remote store. ContentHash is
// opaque and compared for equality only.
type RemoteFile struct {
	Path        string
	ContentHash string
	Content     []byte
}

// EntryType distinguishes files from directories in a tree walk.
type EntryType string

const (
	EntryBlob EntryType = "blob"
	EntryTree EntryType = "tree"
)

// TreeEntry is one node returned by a recursive tree walk.
type TreeEntry struct {
	Path string
	Type EntryType
	Hash string
	Size int64
}
