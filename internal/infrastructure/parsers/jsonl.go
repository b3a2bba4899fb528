package parsers

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/bytedance/sonic"
)

// JSONLParser parses one activity object per line. Blank lines are skipped.
type JSONLParser struct{}

// Parse reads JSON lines from the reader and returns parsed activities.
func (p *JSONLParser) Parse(r io.Reader) ([]RawActivity, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	var activities []RawActivity
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var raw RawActivity
		if err := sonic.Unmarshal(line, &raw); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		raw.LineNum = lineNum
		activities = append(activities, raw)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning JSONL: %w", err)
	}

	return activities, nil
}
