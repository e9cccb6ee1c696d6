package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// StoredFile pairs the blob-namespace name of an uploaded file with the
// original filename the client sent. Keeping the original name as its own
// column means retrieval never has to parse it back out of the stored name.
type StoredFile struct {
	StoredName string
	OrigName   string
}

// ShareRecord is one upload batch: its id, the files in upload order,
// the optional password, and how many times it has been fully delivered.
type ShareRecord struct {
	ID        string
	Files     []StoredFile
	Password  string
	Downloads int64
	CreatedAt time.Time
}

// newShareID generates a fresh opaque identifier for an upload batch.
func newShareID() string {
	return uuid.New().String()
}

// newStoredName builds the blob-namespace name for an uploaded file:
// <token>-<sanitised original filename>. The token is a UUID with its
// hyphens stripped, so the first "-" in a stored name always delimits
// token from filename.
func newStoredName(origName string) string {
	token := strings.ReplaceAll(uuid.New().String(), "-", "")
	return token + "-" + sanitizeFilename(origName)
}

// sanitizeFilename strips any path components and control characters from
// a client-supplied filename. Empty or fully-stripped names fall back to
// "file" so a stored name is never just the bare token.
func sanitizeFilename(name string) string {
	// Keep only the final path element, defending against both separators.
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}

	var b strings.Builder
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}
	name = strings.TrimSpace(b.String())

	if name == "" || name == "." || name == ".." {
		return "file"
	}
	return name
}

// archiveName is the synthetic filename used when a share is delivered as
// a zip bundle.
func archiveName(id string) string {
	return fmt.Sprintf("files-%s.zip", id)
}

// displayName computes the user-facing filename for a set of surviving
// files: the original name for a single file, the synthetic zip name for
// a batch.
func displayName(id string, files []StoredFile) string {
	if len(files) == 1 {
		return files[0].OrigName
	}
	return archiveName(id)
}
