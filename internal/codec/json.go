package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"voicescout/internal/domain"
)

// JSONCodec handles JSON export
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// Export writes the servers as an indented JSON array. An empty list is "[]".
func (c *JSONCodec) Export(servers []domain.VerifiedServer, w io.Writer) error {
	if servers == nil {
		servers = []domain.VerifiedServer{}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(servers); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}
