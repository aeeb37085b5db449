package utils

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/kaptinlin/jsonrepair"
)

// DecodeJSON unmarshals data into a value of type T. If the payload is not
// valid JSON it attempts a single repair pass with jsonrepair and retries
// the unmarshal before giving up. Streaming APIs occasionally emit frames
// with unquoted keys or trailing garbage; repairing is cheaper than losing
// the event.
func DecodeJSON[T any](data []byte) (*T, error) {
	var result T
	err := json.Unmarshal(data, &result)
	if err == nil {
		return &result, nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(string(data))
	if repairErr != nil {
		return nil, fmt.Errorf("failed to unmarshal as %T and failed to repair JSON: unmarshal error: %w, repair error: %v", result, err, repairErr)
	}

	if err = json.Unmarshal([]byte(repaired), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal repaired JSON as %T: %w", result, err)
	}

	return &result, nil
}
