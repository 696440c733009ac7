package utils

import (
	"strconv"
	"strings"
)

const byteSizeStep = 1024

var byteSizeUnits = [...]string{"b", "kb", "mb", "gb", "tb", "pb"}

// FormatByteSize renders a byte count with binary lower-case units, e.g. "512b", "1.5kb", "20kb".
// One decimal is kept below ten units. Negative counts render as "0b".
func FormatByteSize(size int64) string {
	if size < byteSizeStep {
		if size < 0 {
			size = 0
		}
		return strconv.FormatInt(size, 10) + byteSizeUnits[0]
	}
	value := float64(size)
	unitIndex := 0
	for value >= byteSizeStep && unitIndex < len(byteSizeUnits)-1 {
		value /= byteSizeStep
		unitIndex++
	}
	precision := 0
	if value < 10 {
		precision = 1
	}
	formatted := strings.TrimSuffix(strconv.FormatFloat(value, 'f', precision, 64), ".0")
	return formatted + byteSizeUnits[unitIndex]
}
