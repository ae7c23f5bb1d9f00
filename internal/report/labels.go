package report

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/panopticlick/Panopticlick-sub001/internal/model"
)

// titleCase renders enum values such as "not very unique" or "gamer" as
// display labels.
func titleCase(s string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(s, "-", " "))
}

// componentLabels are display names for entropy components.
var componentLabels = map[string]string{
	model.ComponentCanvas:    "Canvas",
	model.ComponentWebGL:     "WebGL",
	model.ComponentAudio:     "Audio",
	model.ComponentFonts:     "Fonts",
	model.ComponentScreen:    "Screen",
	model.ComponentPlatform:  "Platform",
	model.ComponentUserAgent: "User Agent",
	model.ComponentTimezone:  "Timezone",
	model.ComponentLanguage:  "Language",
	model.ComponentHardware:  "Hardware",
	model.ComponentPlugins:   "Plugins",
	model.ComponentTouch:     "Touch Support",
	model.ComponentUnknown:   "Other Signals",
}

func componentLabel(name string) string {
	if label, ok := componentLabels[name]; ok {
		return label
	}
	return titleCase(name)
}

// componentRow is one entry of the entropy table.
type componentRow struct {
	name string
	bits float64
}

// presentComponents returns the components that contributed, in display order.
func presentComponents(e model.EntropyBreakdown) []componentRow {
	rows := make([]componentRow, 0, len(e.Components))
	for _, name := range model.Components {
		if c, ok := e.Components[name]; ok {
			rows = append(rows, componentRow{name: name, bits: c.Bits})
		}
	}
	return rows
}

func formatBits(bits float64) string {
	return fmt.Sprintf("%.2f bits", bits)
}

func formatMoney(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}
