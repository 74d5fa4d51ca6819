package classify

import (
	"regexp"
	"strings"

	"tooldeck/model"
)

// KeywordExtractor is the default slot-filling policy. It fills schema
// fields from two sources, in order:
//
//  1. explicit "name: value" or name=value pairs anywhere in the utterance
//     (values may be double-quoted to include spaces);
//  2. type-based captures for fields still unfilled (ISO dates and
//     today/tomorrow for "date" fields, bare numerics for "number" fields).
//
// Anything it cannot fill is reported as missing, preserving schema order,
// so the caller can enter parameter negotiation instead of guessing.
type KeywordExtractor struct{}

var (
	datePattern   = regexp.MustCompile(`(?i)\b(\d{4}-\d{2}-\d{2}|today|tomorrow)\b`)
	numberPattern = regexp.MustCompile(`(?:^|[\s(=:])(-?\d+(?:\.\d+)?)\b`)
)

// Extract implements Extractor.
func (KeywordExtractor) Extract(text string, schema []model.ToolParam) (map[string]string, []model.ToolParam) {
	values := make(map[string]string)

	for _, param := range schema {
		if v, ok := extractPair(text, param.Name); ok {
			values[param.Name] = v
		}
	}

	for _, param := range schema {
		if _, ok := values[param.Name]; ok {
			continue
		}
		if v, ok := extractTyped(text, param.Type); ok {
			values[param.Name] = v
		}
	}

	var missing []model.ToolParam
	for _, param := range schema {
		if !param.Required {
			continue
		}
		if _, ok := values[param.Name]; !ok {
			missing = append(missing, param)
		}
	}
	return values, missing
}

// extractPair looks for `name: value`, `name = value` or `name:"quoted
// value"` forms. The name match is case-insensitive and word-bounded.
func extractPair(text, name string) (string, bool) {
	pattern := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(name) + `\s*[:=]\s*(?:"([^"]*)"|(\S+))`)
	m := pattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	if m[1] != "" {
		return m[1], true
	}
	return strings.Trim(m[2], `,.;`), true
}

func extractTyped(text, paramType string) (string, bool) {
	switch strings.ToLower(paramType) {
	case "date":
		if m := datePattern.FindString(text); m != "" {
			return strings.ToLower(m), true
		}
	case "number":
		// Blank out date spans first so the year inside "2026-09-01"
		// is never mistaken for a standalone number.
		cleaned := datePattern.ReplaceAllString(text, " ")
		if m := numberPattern.FindStringSubmatch(cleaned); m != nil {
			return m[1], true
		}
	}
	return "", false
}
