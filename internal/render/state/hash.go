package state

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileFingerprint identifies a file's content cheaply by size and mtime.
type FileFingerprint struct {
	Path    string `json:"path"`
	Size    int64  `json:"size"`
	ModTime int64  `json:"mod_time"`
	Missing bool   `json:"missing,omitempty"`
}

// Fingerprint stats path. Missing files are fingerprinted as missing rather
// than failing so a later reappearance changes the hash.
func Fingerprint(path string) FileFingerprint {
	if path == "" {
		return FileFingerprint{Missing: true}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	info, err := os.Stat(abs)
	if err != nil {
		return FileFingerprint{Path: abs, Missing: true}
	}
	return FileFingerprint{Path: abs, Size: info.Size(), ModTime: info.ModTime().UnixNano()}
}

// HashInputs returns a deterministic hash of the JSON encoding of v. Struct
// field order and sorted map keys make encoding/json output canonical.
func HashInputs(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		// Should never happen with known struct types.
		return fmt.Sprintf("sha256:error-%v", err)
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("sha256:%x", sum)
}
