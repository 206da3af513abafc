package codec

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"voicescout/internal/domain"
)

// MaxVoicesShown caps the voice column so wide catalogs stay readable
const MaxVoicesShown = 3

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// TableCodec renders servers as a terminal table
type TableCodec struct{}

// NewTableCodec creates a new table codec
func NewTableCodec() *TableCodec {
	return &TableCodec{}
}

// Format returns the codec format identifier
func (c *TableCodec) Format() string {
	return "table"
}

// Export writes a bordered table, or a single line when there are no servers
func (c *TableCodec) Export(servers []domain.VerifiedServer, w io.Writer) error {
	if len(servers) == 0 {
		_, err := fmt.Fprintln(w, "No speech servers found.")
		return err
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("ADDRESS", "WEB", "SYNTH", "EVIDENCE", "VOICES").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for _, s := range servers {
		t.Row(s.Key(), domain.FormatPort(s.WebPort), domain.FormatPort(s.SynthPort),
			string(s.Evidence), VoiceSummary(s.Voices))
	}

	if _, err := fmt.Fprintln(w, t.Render()); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}
	return nil
}

// VoiceSummary joins the first few voices and counts the rest
func VoiceSummary(voices []string) string {
	switch {
	case len(voices) == 0:
		return "-"
	case len(voices) <= MaxVoicesShown:
		return strings.Join(voices, ", ")
	default:
		return strings.Join(voices[:MaxVoicesShown], ", ") + " +" + strconv.Itoa(len(voices)-MaxVoicesShown)
	}
}
