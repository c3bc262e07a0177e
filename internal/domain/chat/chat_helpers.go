package chat

import "strings"

// stripCodeFences removes a leading ```json (or ```) marker and a trailing
// ``` marker. Nothing else in the reply is touched.
func stripCodeFences(response string) string {
	response = strings.TrimSpace(response)

	// Remove markdown code block markers
	if strings.HasPrefix(response, "```json") {
		response = strings.TrimPrefix(response, "```json")
	} else if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```")
	}
	response = strings.TrimSuffix(response, "```")
	return strings.TrimSpace(response)
}

// cleanJSONResponse strips markdown code fences and any prose around the
// first balanced JSON value that starts with open ('[' or '{').
func cleanJSONResponse(response string, open byte) string {
	response = stripCodeFences(response)

	closing := byte('}')
	if open == '[' {
		closing = ']'
	}

	first := strings.IndexAny(response, "[{")
	if first == -1 || response[first] != open {
		return response // No JSON of the expected kind, return as is
	}

	depth := 0
	inString := false
	escaped := false
	for i := first; i < len(response); i++ {
		c := response[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return response[first : i+1]
			}
		}
	}

	// Unbalanced; fall back to the last closing delimiter.
	last := strings.LastIndexByte(response, closing)
	if last <= first {
		return response
	}
	return response[first : last+1]
}
