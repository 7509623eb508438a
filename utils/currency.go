package utils

import (
	"fmt"
	"strings"
)

// FormatCurrency renders an amount with dot thousand separators and a comma
// decimal mark, e.g. 1550.5 -> "1.550,50".
func FormatCurrency(amount float64) string {
	formatted := fmt.Sprintf("%.2f", amount)

	parts := strings.Split(formatted, ".")
	integerPart := parts[0]
	decimalPart := parts[1]

	sign := ""
	if strings.HasPrefix(integerPart, "-") {
		sign = "-"
		integerPart = integerPart[1:]
	}

	var result []string
	for i := len(integerPart); i > 0; i -= 3 {
		start := i - 3
		if start < 0 {
			start = 0
		}
		result = append([]string{integerPart[start:i]}, result...)
	}

	return sign + strings.Join(result, ".") + "," + decimalPart
}
