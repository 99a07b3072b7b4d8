package usecase

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"itinerary-service/internal/domain/entity"
)

// ValidateItinerary checks decoded model output against the itinerary contract and
// converts it into days. Rules are evaluated in order and the first violation is
// returned as a *entity.ValidationError:
//
//  1. the candidate is an array
//  2. every day has a positive integer day, a theme and at least one activity
//  3. every activity has a time, a location and a description of MinDescriptionRune runes
//  4. there are exactly expectedDays days
//  5. day i (0-based) is numbered i+1
func ValidateItinerary(candidate any, expectedDays int) ([]entity.Day, error) {
	items, ok := candidate.([]any)
	if !ok {
		return nil, &entity.ValidationError{
			Rule:   entity.RuleSequence,
			Index:  -1,
			Detail: fmt.Sprintf("expected an array of days, got %s", describe(candidate)),
		}
	}

	days := make([]entity.Day, len(items))
	rawActivities := make([][]any, len(items))

	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, dayError(entity.RuleDayShape, i, "day is %s, not an object", describe(item))
		}

		n, ok := entity.AsInt(obj["day"])
		if !ok || n < 1 {
			return nil, dayError(entity.RuleDayShape, i, "day must be a positive integer, got %v", obj["day"])
		}

		theme, _ := obj["theme"].(string)
		if strings.TrimSpace(theme) == "" {
			return nil, dayError(entity.RuleDayShape, i, "theme is missing or empty")
		}

		acts, ok := obj["activities"].([]any)
		if !ok || len(acts) == 0 {
			return nil, dayError(entity.RuleDayShape, i, "activities must be a non-empty array")
		}

		days[i] = entity.Day{Day: n, Theme: theme}
		rawActivities[i] = acts
	}

	for i, acts := range rawActivities {
		activities := make([]entity.Activity, 0, len(acts))
		for j, raw := range acts {
			a, err := toActivity(raw)
			if err != nil {
				return nil, dayError(entity.RuleActivityShape, i, "activity %d: %v", j, err)
			}
			activities = append(activities, a)
		}
		days[i].Activities = activities
	}

	if len(days) != expectedDays {
		return nil, &entity.ValidationError{
			Rule:   entity.RuleDayCount,
			Index:  -1,
			Detail: fmt.Sprintf("expected %d days, got %d", expectedDays, len(days)),
		}
	}

	for i, d := range days {
		if d.Day != i+1 {
			return nil, dayError(entity.RuleDaySequence, i, "expected day %d, got %d", i+1, d.Day)
		}
	}

	return days, nil
}

func toActivity(raw any) (entity.Activity, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return entity.Activity{}, fmt.Errorf("expected an object, got %s", describe(raw))
	}

	a := entity.Activity{}
	a.Time, _ = obj["time"].(string)
	a.Location, _ = obj["location"].(string)
	a.Description, _ = obj["description"].(string)

	if strings.TrimSpace(a.Time) == "" {
		return a, fmt.Errorf("time is missing or empty")
	}
	if strings.TrimSpace(a.Location) == "" {
		return a, fmt.Errorf("location is missing or empty")
	}
	if n := utf8.RuneCountInString(strings.TrimSpace(a.Description)); n < entity.MinDescriptionRune {
		return a, fmt.Errorf("description has %d characters, need at least %d", n, entity.MinDescriptionRune)
	}
	return a, nil
}

func dayError(rule string, index int, format string, args ...any) *entity.ValidationError {
	return &entity.ValidationError{Rule: rule, Index: index, Detail: fmt.Sprintf(format, args...)}
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "an object"
	case []any:
		return "an array"
	case string:
		return "a string"
	case float64, int, int64:
		return "a number"
	case bool:
		return "a boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
