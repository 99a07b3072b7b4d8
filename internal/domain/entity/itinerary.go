package entity

import "fmt"

// Day is one day of a generated itinerary. Day equals its 1-based position.
type Day struct {
	Day        int        `json:"day"`
	Theme      string     `json:"theme"`
	Activities []Activity `json:"activities"`
}

// Activity is a single slot in a day, conventionally Morning/Afternoon/Evening/Late Evening
type Activity struct {
	Time        string `json:"time"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

// DaysToValues converts days into nested []any / map[string]any values for document storage
func DaysToValues(days []Day) []any {
	out := make([]any, 0, len(days))
	for _, d := range days {
		activities := make([]any, 0, len(d.Activities))
		for _, a := range d.Activities {
			activities = append(activities, map[string]any{
				"time":        a.Time,
				"description": a.Description,
				"location":    a.Location,
			})
		}
		out = append(out, map[string]any{
			"day":        int64(d.Day),
			"theme":      d.Theme,
			"activities": activities,
		})
	}
	return out
}

// DaysFromValues is the inverse of DaysToValues
func DaysFromValues(v any) ([]Day, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected array, got %T", v)
	}

	days := make([]Day, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("day %d: expected map, got %T", i, item)
		}
		n, ok := AsInt(m["day"])
		if !ok {
			return nil, fmt.Errorf("day %d: missing integer day", i)
		}
		theme, _ := m["theme"].(string)

		rawActs, ok := m["activities"].([]any)
		if !ok {
			return nil, fmt.Errorf("day %d: expected activities array, got %T", i, m["activities"])
		}
		activities := make([]Activity, 0, len(rawActs))
		for j, ra := range rawActs {
			am, ok := ra.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("day %d activity %d: expected map, got %T", i, j, ra)
			}
			a := Activity{}
			a.Time, _ = am["time"].(string)
			a.Description, _ = am["description"].(string)
			a.Location, _ = am["location"].(string)
			activities = append(activities, a)
		}

		days = append(days, Day{Day: n, Theme: theme, Activities: activities})
	}
	return days, nil
}
