package orders

import (
	"fmt"
	"strings"

	"roomservice/internal/models"

	"github.com/shopspring/decimal"
)

// FormatLines renders priced lines one per row, followed by the total
func FormatLines(lines []models.ConfirmedLine, total decimal.Decimal) string {
	var b strings.Builder
	for _, line := range lines {
		fmt.Fprintf(&b, "- %d x %s", line.Quantity, line.ItemName)
		if len(line.Modifications) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(line.Modifications, ", "))
		}
		fmt.Fprintf(&b, ": $%s\n", line.LinePrice.StringFixed(2))
	}
	fmt.Fprintf(&b, "Total: $%s", total.StringFixed(2))
	return b.String()
}

// Summary describes a confirmed order for the guest
func Summary(order models.ConfirmedOrder) string {
	return fmt.Sprintf("Order %s for room %d is %s.\n%s",
		ShortID(order.OrderID), order.RoomNumber, order.Status, FormatLines(order.Lines, order.Total))
}

// ShortID returns the first block of an order id for display
func ShortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}
