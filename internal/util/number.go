package util

import "strings"

// NumberFormat groups the integer part of a decimal string in thousands,
// "100000000" becomes "100,000,000". Fraction digits are left alone.
func NumberFormat(str string) string {
	intPart, frac, hasFrac := strings.Cut(str, ".")
	sign := ""
	if strings.HasPrefix(intPart, "-") {
		sign, intPart = "-", intPart[1:]
	}
	if len(intPart) < 4 {
		return str
	}
	var b strings.Builder
	head := len(intPart) % 3
	if head > 0 {
		b.WriteString(intPart[:head])
	}
	for i := head; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	out := sign + b.String()
	if hasFrac {
		out += "." + frac
	}
	return out
}
