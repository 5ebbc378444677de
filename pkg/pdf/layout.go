package pdf

import "strings"

// Margins are expressed in inches.
type Margins struct {
	Top    float64 `json:"top" yaml:"top"`
	Right  float64 `json:"right" yaml:"right"`
	Bottom float64 `json:"bottom" yaml:"bottom"`
	Left   float64 `json:"left" yaml:"left"`
}

// Watermark is stamped diagonally across every page when Text is set.
type Watermark struct {
	Text    string  `json:"text,omitempty" yaml:"text,omitempty"`
	Opacity float64 `json:"opacity,omitempty" yaml:"opacity,omitempty"`
}

// Enabled reports whether a watermark should be applied.
func (w Watermark) Enabled() bool {
	return strings.TrimSpace(w.Text) != ""
}

// Layout is the print configuration for one report category. Header and
// Footer are HTML templates using {{key}} tokens.
type Layout struct {
	Format          string    `json:"format" yaml:"format"`
	Landscape       bool      `json:"landscape" yaml:"landscape"`
	Margins         Margins   `json:"margins" yaml:"margins"`
	Header          string    `json:"header,omitempty" yaml:"header,omitempty"`
	Footer          string    `json:"footer,omitempty" yaml:"footer,omitempty"`
	Watermark       Watermark `json:"watermark" yaml:"watermark"`
	PrintBackground bool      `json:"printBackground" yaml:"printBackground"`
}

// Paper sizes in inches, width by height in portrait orientation.
var paperSizes = map[string][2]float64{
	"A3":     {11.69, 16.54},
	"A4":     {8.27, 11.69},
	"A5":     {5.83, 8.27},
	"LETTER": {8.5, 11},
	"LEGAL":  {8.5, 14},
}

// PaperSize returns width and height in inches for the layout, honouring
// orientation. Unknown formats fall back to A4.
func (l Layout) PaperSize() (width, height float64) {
	size, ok := paperSizes[strings.ToUpper(strings.TrimSpace(l.Format))]
	if !ok {
		size = paperSizes["A4"]
	}
	if l.Landscape {
		return size[1], size[0]
	}
	return size[0], size[1]
}

const (
	defaultHeader = `<div style="font-size:9px;width:100%;padding:0 0.4in;display:flex;justify-content:space-between"><span>{{title}}</span><span>{{date}}</span></div>`
	defaultFooter = `<div style="font-size:9px;width:100%;padding:0 0.4in;text-align:right">Page <span class="pageNumber"></span> of <span class="totalPages"></span></div>`
)

var layouts = map[string]Layout{
	"safety": {
		Format:          "A4",
		Margins:         Margins{Top: 0.8, Right: 0.5, Bottom: 0.8, Left: 0.5},
		Header:          `<div style="font-size:9px;width:100%;padding:0 0.4in;color:#b42318"><strong>SAFETY</strong> {{title}} | {{date}}</div>`,
		Footer:          defaultFooter,
		Watermark:       Watermark{Text: "SAFETY CRITICAL", Opacity: 0.08},
		PrintBackground: true,
	},
	"financial": {
		Format:          "A4",
		Landscape:       true,
		Margins:         Margins{Top: 0.7, Right: 0.5, Bottom: 0.7, Left: 0.5},
		Header:          defaultHeader,
		Footer:          `<div style="font-size:9px;width:100%;padding:0 0.4in;display:flex;justify-content:space-between"><span>Confidential</span><span>Page <span class="pageNumber"></span> of <span class="totalPages"></span></span></div>`,
		Watermark:       Watermark{Text: "CONFIDENTIAL", Opacity: 0.1},
		PrintBackground: true,
	},
	"schedule": {
		Format:          "A3",
		Landscape:       true,
		Margins:         Margins{Top: 0.6, Right: 0.4, Bottom: 0.6, Left: 0.4},
		Header:          defaultHeader,
		Footer:          defaultFooter,
		PrintBackground: true,
	},
}

// DefaultLayout is used for categories without a dedicated layout.
func DefaultLayout() Layout {
	return Layout{
		Format:          "A4",
		Margins:         Margins{Top: 0.75, Right: 0.5, Bottom: 0.75, Left: 0.5},
		Header:          defaultHeader,
		Footer:          defaultFooter,
		PrintBackground: true,
	}
}

// LayoutFor returns the layout for a report category (case-insensitive).
func LayoutFor(category string) Layout {
	if layout, ok := layouts[strings.ToLower(strings.TrimSpace(category))]; ok {
		return layout
	}
	return DefaultLayout()
}

// Categories lists categories with a dedicated layout.
func Categories() []string {
	return []string{"financial", "safety", "schedule"}
}
