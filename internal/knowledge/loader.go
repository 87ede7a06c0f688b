// Package knowledge reads the company knowledge file.
package knowledge

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"

	"chatbot/internal/domain"
)

// Load reads the whole plain-text file at path.
func Load(path string) (domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("read knowledge file: %w", err)
	}
	return domain.Document{ID: hashString(path), Path: path, Content: string(data)}, nil
}

func hashString(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:8])
}
