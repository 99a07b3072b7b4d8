package templates

import (
	"bytes"
	"fmt"
	"text/template"

	"itinerary-service/internal/domain/entity"
)

const itineraryPromptText = `You are an experienced travel planner.
Create a {{.Days}}-day travel itinerary for {{.Destination}}.

Respond with a JSON array of exactly {{.Days}} objects, one per day, in order.
Each object must have these fields:
  "day": the day number as an integer, starting at 1 and increasing by 1
  "theme": a short title for the day
  "activities": an array of activities, each with
    "time": one of "Morning", "Afternoon", "Evening" or "Late Evening"
    "description": what to do, at least {{.MinDescription}} characters long
    "location": the specific place or neighbourhood

Example of the expected shape:
[{"day": 1, "theme": "Historic Center", "activities": [{"time": "Morning", "description": "Guided walk through the old town squares", "location": "Old Town"}]}]

Return only the JSON array. Do not wrap it in markdown code fences and do not add any text before or after it.`

var itineraryPrompt = template.Must(template.New("itinerary").Parse(itineraryPromptText))

type itineraryPromptData struct {
	Destination    string
	Days           int
	MinDescription int
}

// BuildItineraryPrompt renders the model instruction for a destination and trip length
func BuildItineraryPrompt(destination string, durationDays int) (string, error) {
	var buf bytes.Buffer
	err := itineraryPrompt.Execute(&buf, itineraryPromptData{
		Destination:    destination,
		Days:           durationDays,
		MinDescription: entity.MinDescriptionRune,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render itinerary prompt: %w", err)
	}
	return buf.String(), nil
}
