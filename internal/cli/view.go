package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/storefront-labs/storefront/internal/cart"
	"github.com/storefront-labs/storefront/internal/checkout"
	"github.com/storefront-labs/storefront/internal/tracking"
	"github.com/storefront-labs/storefront/pkg/models"
)

// NoOrdersMessage is shown when there is no order to display or confirm.
const NoOrdersMessage = "No orders found."

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func renderProducts(w io.Writer, products []cart.Product) {
	if len(products) == 0 {
		fmt.Fprintln(w, "No products available.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tDESCRIPTION")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ProductID, p.ProductName, money(p.Price), p.Description)
	}
	tw.Flush()
}

func renderItems(w io.Writer, items []cart.LineItem) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tQTY\tSUBTOTAL")
	for _, item := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			item.ProductID, item.ProductName, money(item.Price), item.Quantity, money(item.Subtotal()))
	}
	tw.Flush()
}

func renderCart(w io.Writer, c cart.Cart) {
	if c.Len() == 0 {
		fmt.Fprintln(w, "Your cart is empty.")
		return
	}
	renderItems(w, c)
	fmt.Fprintf(w, "\nTotal: %s (%d items)\n", money(cart.TotalPrice(c)), c.Units())
}

func renderPendingOrder(w io.Writer, order *checkout.PendingOrder) {
	fmt.Fprintf(w, "Pending order (%s)\n", order.Status)
	fmt.Fprintf(w, "  Created: %s\n\n", order.CreatedAt.Local().Format("2006-01-02 15:04"))
	renderItems(w, order.OrderItems)
	fmt.Fprintf(w, "\nTotal: %s\n", money(order.TotalAmount))
}

// renderOrderView shows the latest server order next to the pending items.
func renderOrderView(w io.Writer, record models.OrderRecord, order *checkout.PendingOrder) {
	display := tracking.Describe(record.Status)
	fmt.Fprintln(w, "Order Details")
	fmt.Fprintf(w, "  Customer:   %s\n", record.CustomerID)
	fmt.Fprintf(w, "  Order date: %s\n", record.OrderDate)
	fmt.Fprintf(w, "  Status:     %s %s\n\n", record.Status, tracking.ProgressBar(display, 20))
	renderItems(w, order.OrderItems)
	fmt.Fprintf(w, "\nTotal: %s\n", money(order.TotalAmount))
}

func renderTracking(w io.Writer, record *models.TrackingRecord) {
	if record.Status == "" {
		fmt.Fprintf(w, "No tracking information for order %s.\n", record.OrderID)
		return
	}
	display := tracking.Describe(record.Status)
	fmt.Fprintf(w, "Order %s\n", record.OrderID)
	if record.CustomerID != "" {
		fmt.Fprintf(w, "  Customer: %s\n", record.CustomerID)
	}
	fmt.Fprintf(w, "  Status:   %s (%s)\n", display.Status, display.Color)
	fmt.Fprintf(w, "  Progress: %s\n", tracking.ProgressBar(display, 20))
}

func renderReceipt(w io.Writer, r *checkout.Receipt) {
	fmt.Fprintln(w, "✓ Payment successful")
	fmt.Fprintf(w, "  Order:     %s\n", r.OrderID)
	fmt.Fprintf(w, "  Method:    %s\n", r.Method)
	fmt.Fprintf(w, "  Amount:    %s\n", money(r.Amount))
	fmt.Fprintf(w, "  Reference: %s\n", r.Reference)
}
