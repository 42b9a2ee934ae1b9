package verify

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"toeicq/pkg/llm"
)

// imageAttachment loads a question's photograph from under the photo root
// (<root>/p<part>/<filename>) and encodes it for the solver request.
func imageAttachment(photoRoot string, part int, img string) (llm.ImageAttachment, error) {
	path := filepath.Join(photoRoot, fmt.Sprintf("p%d", part), img)

	data, err := os.ReadFile(path)
	if err != nil {
		return llm.ImageAttachment{}, fmt.Errorf("failed to read image %s: %w", path, err)
	}

	return llm.ImageAttachment{
		MediaType: mimeTypeFor(img),
		Data:      base64.StdEncoding.EncodeToString(data),
	}, nil
}

// mimeTypeFor maps a file extension to its MIME type, defaulting to JPEG.
func mimeTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
