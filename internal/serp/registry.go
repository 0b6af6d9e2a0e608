package serp

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed data/engines.json
var enginesJSON []byte

// engineRow is one row of the rule-definition data: a match key plus the
// engine fields. Past the engine name every field may be omitted, in which
// case the row inherits the group default established by the engine's first
// row.
type engineRow struct {
	Key        string   `json:"key"`
	Engine     string   `json:"engine"`
	Extractors []string `json:"extractors,omitempty"`
	Link       *string  `json:"link,omitempty"`
	Charsets   []string `json:"charsets,omitempty"`
}

// buildEngines turns the ordered row data into the match-key -> rule map.
// Consecutive rows sharing an engine name form a group: the first row of the
// group fixes the defaults and every later row overrides only the fields it
// names, inheriting the rest from the group default rather than from the
// previous row. Duplicate match keys overwrite.
func buildEngines(rows []engineRow) (map[string]*EngineRule, error) {
	engines := make(map[string]*EngineRule, len(rows))

	var (
		groupName     string
		defExtractors []string
		defLink       string
		defCharsets   []string
	)
	for i, row := range rows {
		if row.Key == "" || row.Engine == "" {
			return nil, fmt.Errorf("rule row %d: missing match key or engine name", i)
		}
		if row.Engine != groupName {
			groupName = row.Engine
			defExtractors = row.Extractors
			defLink = ""
			if row.Link != nil {
				defLink = *row.Link
			}
			defCharsets = row.Charsets
		}

		extractors := defExtractors
		if row.Extractors != nil {
			extractors = row.Extractors
		}
		link := defLink
		if row.Link != nil {
			link = *row.Link
		}
		charsets := defCharsets
		if row.Charsets != nil {
			charsets = row.Charsets
		}

		rule, err := NewEngineRule(row.Engine, extractors, link, charsets)
		if err != nil {
			return nil, fmt.Errorf("rule row %d (%s): %w", i, row.Key, err)
		}
		engines[row.Key] = rule
	}
	return engines, nil
}

// loadDefaultEngines decodes the embedded rule data. The data ships inside
// the binary, so failure here is a build defect, not a runtime condition.
func loadDefaultEngines() (map[string]*EngineRule, error) {
	var rows []engineRow
	if err := json.Unmarshal(enginesJSON, &rows); err != nil {
		return nil, fmt.Errorf("decode embedded engine rules: %w", err)
	}
	return buildEngines(rows)
}
