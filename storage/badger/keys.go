package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/docquery/core"
)

// Key prefixes for different data types
const (
	chunkPrefix    = "chk"
	chunkDocPrefix = "chkdoc"
)

// makeChunkKey generates a key for a chunk by its content hash ID.
func makeChunkKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", chunkPrefix, id))
}

// makeChunkDocKey generates a composite key for the document index.
// Format: prefix:documentID:id
func makeChunkDocKey(documentID string, id core.ID) []byte {
	prefix := chunkDocPrefix + ":" + documentID + ":"
	prefixBytes := []byte(prefix)
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialChunkDocKey generates a partial key prefix for document queries.
func makePartialChunkDocKey(documentID string) []byte {
	return []byte(chunkDocPrefix + ":" + documentID + ":")
}

// hasPrefix reports whether key starts with prefix.
func hasPrefix(key, prefix []byte) bool {
	if len(key) < len(prefix) {
		return false
	}
	for i := range prefix {
		if key[i] != prefix[i] {
			return false
		}
	}
	return true
}
