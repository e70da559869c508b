package simpleexcel

import (
	"strings"

	"github.com/xuri/excelize/v2"
)

// CellStyle defines the style applied to every header and data cell.
type CellStyle struct {
	FontName  string  `yaml:"font_name"`
	FontSize  float64 `yaml:"font_size"`
	FontBold  bool    `yaml:"font_bold"`
	FontColor string  `yaml:"font_color"` // Hex color

	FillColor string `yaml:"fill_color"` // Hex color

	Alignment     string `yaml:"alignment"`      // left, center, right
	VerticalAlign string `yaml:"vertical_align"` // top, center, bottom

	BorderStyle string `yaml:"border_style"` // thin, medium, dashed, dotted, thick, double
	BorderColor string `yaml:"border_color"`

	WrapText bool `yaml:"wrap_text"`
}

// DefaultCellStyle returns centered text with thin borders on all sides.
func DefaultCellStyle() *CellStyle {
	return &CellStyle{
		Alignment:     "center",
		VerticalAlign: "center",
		BorderStyle:   "thin",
	}
}

var borderStyles = map[string]int{
	"thin":   1,
	"medium": 2,
	"dashed": 3,
	"dotted": 4,
	"thick":  5,
	"double": 6,
}

// toExcelStyle converts a CellStyle into an excelize style definition.
func toExcelStyle(style *CellStyle) *excelize.Style {
	if style == nil {
		style = DefaultCellStyle()
	}

	s := &excelize.Style{
		Alignment: &excelize.Alignment{
			Horizontal: style.Alignment,
			Vertical:   style.VerticalAlign,
			WrapText:   style.WrapText,
		},
	}

	if style.FontName != "" || style.FontSize > 0 || style.FontBold || style.FontColor != "" {
		s.Font = &excelize.Font{
			Family: style.FontName,
			Size:   style.FontSize,
			Bold:   style.FontBold,
			Color:  strings.TrimPrefix(style.FontColor, "#"),
		}
	}

	if style.FillColor != "" {
		s.Fill = excelize.Fill{
			Type:    "pattern",
			Color:   []string{strings.TrimPrefix(style.FillColor, "#")},
			Pattern: 1,
		}
	}

	if border, ok := borderStyles[style.BorderStyle]; ok {
		color := "000000"
		if style.BorderColor != "" {
			color = strings.TrimPrefix(style.BorderColor, "#")
		}
		s.Border = []excelize.Border{
			{Type: "left", Color: color, Style: border},
			{Type: "top", Color: color, Style: border},
			{Type: "bottom", Color: color, Style: border},
			{Type: "right", Color: color, Style: border},
		}
	}

	return s
}
