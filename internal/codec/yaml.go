package codec

import (
	"fmt"
	"io"

	"voicescout/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles YAML export
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// yamlDocument represents the YAML structure for a server list
type yamlDocument struct {
	Servers []yamlServer `yaml:"servers"`
}

type yamlServer struct {
	Address   string   `yaml:"address"`
	WebPort   *uint16  `yaml:"web_port,omitempty"`
	SynthPort *uint16  `yaml:"synth_port,omitempty"`
	WebURL    string   `yaml:"web_url,omitempty"`
	SynthURL  string   `yaml:"synth_url,omitempty"`
	Evidence  string   `yaml:"evidence,omitempty"`
	Voices    []string `yaml:"voices,omitempty"`
}

// Export writes the servers under a top-level "servers" key
func (c *YAMLCodec) Export(servers []domain.VerifiedServer, w io.Writer) error {
	doc := yamlDocument{Servers: make([]yamlServer, 0, len(servers))}
	for _, s := range servers {
		doc.Servers = append(doc.Servers, yamlServer{
			Address:   s.Key(),
			WebPort:   s.WebPort,
			SynthPort: s.SynthPort,
			WebURL:    s.WebURL(),
			SynthURL:  s.SynthURL(),
			Evidence:  string(s.Evidence),
			Voices:    s.Voices,
		})
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&doc); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}
