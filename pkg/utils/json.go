package utils

import (
	"strings"
)

// ExtractJSON strips markdown code fences and surrounding prose from a model
// response, returning the JSON payload. Models occasionally wrap the object
// in ```json fences or lead with a sentence despite instructions.
func ExtractJSON(text string) string {
	text = strings.TrimSpace(text)

	// Strip a fenced block if present
	if idx := strings.Index(text, "```"); idx != -1 {
		rest := text[idx+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end != -1 {
			text = rest[:end]
		} else {
			text = rest
		}
		text = strings.TrimSpace(text)
	}

	// Trim to the outermost object or array
	startObj := strings.IndexByte(text, '{')
	startArr := strings.IndexByte(text, '[')
	start := startObj
	end := strings.LastIndexByte(text, '}')
	if startArr != -1 && (startObj == -1 || startArr < startObj) {
		start = startArr
		end = strings.LastIndexByte(text, ']')
	}
	if start == -1 || end == -1 || end < start {
		return text
	}
	return text[start : end+1]
}
