package printer

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatINR formats an amount with two decimals and Indian digit grouping,
// e.g. 1234567.5 -> "12,34,567.50"
func FormatINR(v float64) string {
	s := decimal.NewFromFloat(v).StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")
	if len(whole) > 3 {
		head, tail := whole[:len(whole)-3], whole[len(whole)-3:]
		var groups []string
		for len(head) > 2 {
			groups = append([]string{head[len(head)-2:]}, groups...)
			head = head[:len(head)-2]
		}
		groups = append([]string{head}, groups...)
		whole = strings.Join(groups, ",") + "," + tail
	}
	if sign != "" && strings.Trim(whole+frac, "0,") == "" {
		sign = ""
	}
	return sign + whole + "." + frac
}

func formatQty(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}
