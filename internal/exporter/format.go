package exporter

import (
	"strconv"
)

// formatFloat renders a value with the shortest representation that round-trips
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatInt formats an integer column
func formatInt(i int) string {
	return strconv.Itoa(i)
}
