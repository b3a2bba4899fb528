package parsers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// JSONParser parses a JSON export. It accepts a bare array, an object with
// an "activities" array, or the activity API page shape
// {"current": {"orderedItems": [...]}}.
type JSONParser struct{}

type activityPage struct {
	Activities []RawActivity `json:"activities"`
	Current    struct {
		OrderedItems []RawActivity `json:"orderedItems"`
	} `json:"current"`
}

// Parse reads JSON from the reader and returns parsed activities.
func (p *JSONParser) Parse(r io.Reader) ([]RawActivity, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading JSON: %w", err)
	}
	data = bytes.TrimSpace(data)

	var activities []RawActivity
	if len(data) > 0 && data[0] == '{' {
		var page activityPage
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, fmt.Errorf("parsing JSON: %w", err)
		}
		activities = page.Activities
		if activities == nil {
			activities = page.Current.OrderedItems
		}
		if activities == nil {
			activities = []RawActivity{}
		}
	} else if err := json.Unmarshal(data, &activities); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	for i := range activities {
		activities[i].LineNum = i + 1
	}

	return activities, nil
}
