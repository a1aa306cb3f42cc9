package fcp

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// uidSpace namespaces every UID this package derives.
var uidSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("captionkit/fcp"))

// GenerateUID returns a deterministic UID for a media file. Only the base
// name is used so the same file gets the same UID from any directory;
// FCP rejects re-imports of a file under a different UID.
func GenerateUID(filePath string) string {
	return strings.ToUpper(uuid.NewSHA1(uidSpace, []byte(filepath.Base(filePath))).String())
}

// GenerateTextStyleID returns a text-style-def ID unique to the text and
// its owner. Hardcoded IDs like "ts1" collide once several titles share a
// document.
func GenerateTextStyleID(text, owner string) string {
	id := uuid.NewSHA1(uidSpace, []byte("text_"+owner+"_"+text))
	return "ts" + strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
}

// GenerateResourceID creates a standardized resource ID.
func GenerateResourceID(index int) string {
	return fmt.Sprintf("r%d", index)
}
