package gemini

import (
	"encoding/json"
	"strings"

	"itinerary-service/internal/domain/entity"
)

// cleanJSONBlock removes a surrounding markdown code fence, with or without a language tag
func cleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if nl := strings.IndexByte(text, '\n'); nl >= 0 && !strings.ContainsAny(text[:nl], "[{") {
			text = text[nl+1:]
		} else {
			text = strings.TrimPrefix(text, "json")
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	return strings.TrimSpace(text)
}

// ExtractJSONArray strips fences and any prose around the outermost [ ... ] span.
func ExtractJSONArray(text string) (string, error) {
	cleaned := cleanJSONBlock(text)

	start := strings.IndexByte(cleaned, '[')
	end := strings.LastIndexByte(cleaned, ']')
	if start < 0 || end < start {
		return "", &entity.ContentError{Reason: "no JSON array in model response"}
	}
	return cleaned[start : end+1], nil
}

// ParseItineraryResponse extracts and decodes the JSON array the model answered with.
// The decoded value is not validated.
func ParseItineraryResponse(text string) (any, error) {
	raw, err := ExtractJSONArray(text)
	if err != nil {
		return nil, err
	}

	var candidate any
	if err := json.Unmarshal([]byte(raw), &candidate); err != nil {
		return nil, &entity.ContentError{Reason: "model response is not valid JSON", Err: err}
	}
	return candidate, nil
}
