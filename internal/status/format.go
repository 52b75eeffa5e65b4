package status

import "fmt"

var byteUnits = []string{"B", "kB", "MB", "GB"}

// FormatBytes renders a size with decimal units and one fractional
// digit above the byte range: 999 -> "999B", 1000 -> "1.0kB".
func FormatBytes(size int64) string {
	if size < 1000 {
		return fmt.Sprintf("%dB", size)
	}
	value := float64(size)
	unit := 0
	for value >= 1000 && unit < len(byteUnits)-1 {
		value /= 1000
		unit++
	}
	return fmt.Sprintf("%.1f%s", value, byteUnits[unit])
}

// FormatSpeed renders a transfer rate. Sub-byte rates collapse to
// "0 B/s".
func FormatSpeed(bytesPerSec float64) string {
	if bytesPerSec < 1.0 {
		return "0 B/s"
	}
	return FormatBytes(int64(bytesPerSec)) + "/s"
}
