package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/partscout/pkg/part"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - links
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight for emphasized values.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleLink for URLs.
	StyleLink = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleHeader = lipgloss.NewStyle().Bold(true).Foreground(colorGray)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

// printError prints an error message.
func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconError.Render(iconError) + " " + msg)
}

// printWarning prints a warning message.
func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

// =============================================================================
// Key-Value Output
// =============================================================================

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// =============================================================================
// Search Results
// =============================================================================

// printRecord prints one supplier's answer: a heading, then a table of at
// most limit parts with the unit price that applies when ordering qty.
func printRecord(r searchRecord, limit, qty int) {
	title := StyleTitle.Render(r.Supplier.Name) + StyleDim.Render(" · "+r.Term)
	if r.Error != "" {
		fmt.Println(title)
		printError("%s", r.Error)
		printNewline()
		return
	}

	shown := capParts(r.Parts, limit)
	count := fmt.Sprintf("%d parts", r.Total)
	if len(shown) < r.Total {
		count = fmt.Sprintf("%d of %d parts", len(shown), r.Total)
	}
	fmt.Println(title + StyleDim.Render(" · ") + StyleNumber.Render(count))
	if len(shown) == 0 {
		printDetail("No matches")
		printNewline()
		return
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(StyleDim).
		Headers("SKU", "MPN", "MANUFACTURER", "STOCK", fmt.Sprintf("UNIT @%d", qty), "PRICES", "DESCRIPTION").
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == table.HeaderRow:
				return styleHeader.Padding(0, 1)
			case col == 3:
				return style.Foreground(colorCyan).Align(lipgloss.Right)
			case col == 4:
				return style.Foreground(colorWhite).Align(lipgloss.Right)
			case col == 6:
				return style.Foreground(colorGray).MaxWidth(42)
			}
			return style
		})
	for _, p := range shown {
		t.Row(p.SKU, p.MPN, p.Manufacturer, strconv.Itoa(p.QuantityAvailable), formatUnitPrice(p, qty), formatPrices(p), truncate(p.Description, 40))
	}
	fmt.Println(t.String())
	if p := shown[0]; p.SupplierLink != "" && len(shown) == 1 {
		fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleLink.Render(p.SupplierLink))
	}
	printNewline()
}

// formatPrices renders price breaks as "1+ 0.52 · 10+ 0.45 USD".
func formatPrices(p part.Part) string {
	qtys := p.PriceBreaks.Quantities()
	if len(qtys) == 0 {
		return "-"
	}
	const maxBreaks = 3
	parts := make([]string, 0, maxBreaks)
	for i, q := range qtys {
		if i == maxBreaks {
			parts = append(parts, "…")
			break
		}
		parts = append(parts, fmt.Sprintf("%d+ %s", q, p.PriceBreaks[q].String()))
	}
	return strings.Join(parts, " · ") + " " + p.Currency
}

// formatUnitPrice renders the unit price for an order of qty pieces, or "-"
// when qty is below the smallest break.
func formatUnitPrice(p part.Part, qty int) string {
	price, ok := p.PriceBreaks.Best(qty)
	if !ok {
		return "-"
	}
	return price.String() + " " + p.Currency
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// =============================================================================
// Commands & Next Steps
// =============================================================================

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// =============================================================================
// Utilities
// =============================================================================

// printNewline prints an empty line.
func printNewline() {
	fmt.Println()
}
