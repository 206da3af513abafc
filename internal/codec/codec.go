package codec

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"voicescout/internal/domain"
)

// Exporter writes a list of verified servers in one output format
type Exporter interface {
	Export(servers []domain.VerifiedServer, w io.Writer) error
	Format() string
}

var exporters = map[string]func() Exporter{
	"json":  func() Exporter { return NewJSONCodec() },
	"yaml":  func() Exporter { return NewYAMLCodec() },
	"table": func() Exporter { return NewTableCodec() },
}

// ForFormat returns the exporter for a format name. "yml" is accepted for yaml.
func ForFormat(name string) (Exporter, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "yml" {
		name = "yaml"
	}
	ctor, ok := exporters[name]
	if !ok {
		return nil, fmt.Errorf("unknown output format %q (want one of %s)", name, strings.Join(Formats(), ", "))
	}
	return ctor(), nil
}

// Formats lists the supported format names
func Formats() []string {
	names := make([]string, 0, len(exporters))
	for name := range exporters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
