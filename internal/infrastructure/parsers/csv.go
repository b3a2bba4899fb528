package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// CSVParser parses activities from CSV.
// Required columns: name, published. Optional: activity_id, type, summary,
// text, actor, status, rewind_id, is_rewindable, target_ts.
type CSVParser struct{}

// Parse reads CSV from the reader and returns parsed activities.
func (p *CSVParser) Parse(r io.Reader) ([]RawActivity, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	colIndex, err := p.readHeader(reader)
	if err != nil {
		return nil, err
	}

	return p.readRecords(reader, colIndex)
}

// readHeader reads and validates the CSV header row.
func (p *CSVParser) readHeader(reader *csv.Reader) (map[string]int, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	colIndex := make(map[string]int, len(header))
	for i, col := range header {
		colIndex[strings.ToLower(strings.TrimSpace(col))] = i
	}

	for _, col := range []string{"name", "published"} {
		if _, ok := colIndex[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	return colIndex, nil
}

func (p *CSVParser) readRecords(reader *csv.Reader, colIndex map[string]int) ([]RawActivity, error) {
	var activities []RawActivity
	lineNum := 1 // Header is line 1

	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		activity, err := p.parseRecord(record, colIndex, lineNum)
		if err != nil {
			return nil, err
		}
		activities = append(activities, activity)
	}

	return activities, nil
}

func (p *CSVParser) parseRecord(record []string, colIndex map[string]int, lineNum int) (RawActivity, error) {
	raw := RawActivity{
		ID:        getColumn(record, colIndex, "activity_id"),
		Name:      getColumn(record, colIndex, "name"),
		Type:      getColumn(record, colIndex, "type"),
		Summary:   getColumn(record, colIndex, "summary"),
		Content:   RawContent{Text: getColumn(record, colIndex, "text")},
		Actor:     RawActor{Name: getColumn(record, colIndex, "actor")},
		Status:    getColumn(record, colIndex, "status"),
		RewindID:  getColumn(record, colIndex, "rewind_id"),
		Published: getColumn(record, colIndex, "published"),
		Object:    RawObject{TargetTS: FlexString(getColumn(record, colIndex, "target_ts"))},
		LineNum:   lineNum,
	}

	if v := getColumn(record, colIndex, "is_rewindable"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return RawActivity{}, fmt.Errorf("line %d: invalid is_rewindable value %q: %w", lineNum, v, err)
		}
		raw.IsRewindable = b
	}

	return raw, nil
}

// getColumn safely retrieves a column value from a record.
func getColumn(record []string, colIndex map[string]int, col string) string {
	if idx, ok := colIndex[col]; ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}
