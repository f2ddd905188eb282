package main

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

// ArtifactInfo describes model artifact loaded into memory
type ArtifactInfo struct {
	Name     string    `json:"name"`     // model name
	Path     string    `json:"path"`     // local artifact path
	Size     int64     `json:"size"`     // artifact size in bytes
	SHA256   string    `json:"sha256"`   // artifact checksum
	Source   string    `json:"source"`   // source used to obtain artifact
	Decoder  string    `json:"decoder"`  // decoder which deserialized artifact
	Type     string    `json:"type"`     // classifier type
	Version  string    `json:"version"`  // classifier version
	Features int       `json:"features"` // number of classifier features
	LoadedAt time.Time `json:"loaded_at"`
}

// markup prefixes of HTML documents returned instead of binary content
var markupPrefixes = []string{"<!do", "<htm"}

// helper function to read artifact and verify it is plausible
func readArtifact(path string, minSize int64) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() < minSize {
		return nil, fmt.Errorf("%w: %s has %d bytes, expected at least %d", ErrUndersized, path, info.Size(), minSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if isMarkup(data) {
		return nil, fmt.Errorf("%w: %s", ErrMarkup, path)
	}
	return data, nil
}

// isMarkup reports whether data looks like HTML page
func isMarkup(data []byte) bool {
	head := bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	head = bytes.TrimLeft(head, " \t\r\n")
	if len(head) > 4 {
		head = head[:4]
	}
	prefix := strings.ToLower(string(head))
	for _, p := range markupPrefixes {
		if prefix == p {
			return true
		}
	}
	return strings.HasPrefix(http.DetectContentType(data), "text/html")
}

// helper function to compute checksum of the artifact
func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
