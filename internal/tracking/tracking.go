// Package tracking maps order status strings to their display color and
// progress. Every input string has a display; unknown statuses degrade to a
// neutral color at zero progress.
package tracking

import (
	"fmt"
	"strings"
)

// Order statuses, in fulfillment order.
const (
	StatusPending    = "Pending"
	StatusProcessing = "Processing"
	StatusShipped    = "Shipped"
	StatusDelivered  = "Delivered"
)

// NeutralColor is used for statuses outside the known set.
const NeutralColor = "#ddd"

// Display is how a status is rendered.
type Display struct {
	Status   string `json:"status"`
	Color    string `json:"color"`
	Progress int    `json:"progress"`
	Known    bool   `json:"known"`
}

var table = map[string]Display{
	StatusPending:    {Status: StatusPending, Color: "#f4a261", Progress: 20, Known: true},
	StatusProcessing: {Status: StatusProcessing, Color: "#e9c46a", Progress: 50, Known: true},
	StatusShipped:    {Status: StatusShipped, Color: "#2a9d8f", Progress: 80, Known: true},
	StatusDelivered:  {Status: StatusDelivered, Color: "#264653", Progress: 100, Known: true},
}

// Statuses returns the known statuses in fulfillment order.
func Statuses() []string {
	return []string{StatusPending, StatusProcessing, StatusShipped, StatusDelivered}
}

// Describe returns the display for status. Matching is exact, as the API
// reports statuses with fixed casing.
func Describe(status string) Display {
	if d, ok := table[status]; ok {
		return d
	}
	return Display{Status: status, Color: NeutralColor, Progress: 0}
}

// ProgressBar renders d as a fixed-width text bar, e.g. "[████░░░░░░]  40%".
func ProgressBar(d Display, width int) string {
	if width <= 0 {
		width = 20
	}
	filled := d.Progress * width / 100
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return fmt.Sprintf("[%s%s] %3d%%",
		strings.Repeat("█", filled),
		strings.Repeat("░", width-filled),
		d.Progress)
}
