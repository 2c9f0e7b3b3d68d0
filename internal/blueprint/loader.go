package blueprint

import (
	"encoding/json"
	"fmt"
	"os"
)

// Load reads and validates a blueprint from a JSON file.
func Load(path string) (*Blueprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read blueprint file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a blueprint from raw JSON.
func Parse(data []byte) (*Blueprint, error) {
	var bp Blueprint
	if err := json.Unmarshal(data, &bp); err != nil {
		return nil, fmt.Errorf("failed to parse blueprint JSON: %w", err)
	}

	if bp.Version != 1 {
		return nil, fmt.Errorf("unsupported blueprint version: %d", bp.Version)
	}

	if err := bp.Validate(); err != nil {
		return nil, err
	}

	return &bp, nil
}
