// Package ticket renders a table's aggregated order into a fixed-width
// document sized for a narrow receipt printer.
package ticket

import (
	"fmt"
	"strings"
	"time"

	"github.com/bucamari/pos-backend/internal/tables"
)

const (
	countWidth   = 4
	productWidth = 12
	priceWidth   = 8
	lineWidth    = countWidth + productWidth + priceWidth
)

// Restaurant identifies the venue printed in the ticket header.
type Restaurant struct {
	Name    string
	Address string
	Phone   string
	TaxID   string
}

// FormatPrice renders a price with a currency sign and two decimals.
func FormatPrice(price float64) string {
	return fmt.Sprintf("$%.2f", price)
}

// Format renders aggregated entries into a print-ready receipt. Item lines
// are fixed-width: count padded to 4 characters, product name truncated or
// space-padded to exactly 12, subtotal with two decimals padded to 8.
func Format(entries []tables.AggregatedEntry, restaurant Restaurant, tableID string, at time.Time) string {
	var b strings.Builder
	separator := strings.Repeat("-", lineWidth)

	writeLine(&b, restaurant.Name)
	writeLine(&b, restaurant.Address)
	if restaurant.Phone != "" {
		writeLine(&b, "Tel: "+restaurant.Phone)
	}
	if restaurant.TaxID != "" {
		writeLine(&b, "RUC: "+restaurant.TaxID)
	}
	writeLine(&b, separator)
	writeLine(&b, "Date:  "+at.Format("2006-01-02"))
	writeLine(&b, "Time:  "+at.Format("15:04"))
	writeLine(&b, "Table: "+tableID)
	writeLine(&b, separator)
	writeLine(&b, fmt.Sprintf("%-*s%-*s%-*s", countWidth, "QTY", productWidth, "PRODUCT", priceWidth, "PRICE"))

	var total float64
	for _, entry := range entries {
		writeLine(&b, FormatLine(entry))
		total += entry.Subtotal
	}

	writeLine(&b, separator)
	writeLine(&b, "TOTAL: "+FormatPrice(total))
	writeLine(&b, "")
	writeLine(&b, "Gracias por su visita")

	return b.String()
}

// FormatLine renders one aggregated entry as a fixed-width item line.
func FormatLine(entry tables.AggregatedEntry) string {
	return fmt.Sprintf("%-*d%s%-*s",
		countWidth, entry.Count,
		fitProduct(entry.Product),
		priceWidth, fmt.Sprintf("%.2f", entry.Subtotal))
}

// fitProduct truncates or pads the name to exactly productWidth columns.
// Widths count runes, not bytes, so accented names stay intact and aligned.
func fitProduct(name string) string {
	runes := []rune(name)
	if len(runes) > productWidth {
		runes = runes[:productWidth]
	}
	return string(runes) + strings.Repeat(" ", productWidth-len(runes))
}

func writeLine(b *strings.Builder, line string) {
	b.WriteString(line)
	b.WriteByte('\n')
}
