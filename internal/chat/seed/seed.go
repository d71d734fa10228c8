// Package seed embeds the reference disease dataset loaded into an empty store.
package seed

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"health-chatbot/internal/chatbot"
)

//go:embed diseases.json
var diseasesJSON []byte

// Diseases decodes the embedded dataset. Records carry no IDs; the store
// assigns them on insert.
func Diseases() ([]chatbot.DiseaseRecord, error) {
	var records []chatbot.DiseaseRecord
	if err := json.Unmarshal(diseasesJSON, &records); err != nil {
		return nil, fmt.Errorf("decode seed diseases: %w", err)
	}
	return records, nil
}
