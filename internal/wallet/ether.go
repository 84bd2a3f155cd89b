package wallet

import (
	"math/big"
	"strings"
)

const etherDecimals = 18

// FormatEther renders wei as a decimal ether string: trailing zeros trimmed,
// at least one fractional digit ("1.0", "0.5", "1.000000000000000001").
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0.0"
	}
	sign := ""
	if wei.Sign() < 0 {
		sign = "-"
	}
	digits := new(big.Int).Abs(wei).String()
	if len(digits) <= etherDecimals {
		digits = strings.Repeat("0", etherDecimals-len(digits)+1) + digits
	}
	whole := digits[:len(digits)-etherDecimals]
	frac := strings.TrimRight(digits[len(digits)-etherDecimals:], "0")
	if frac == "" {
		frac = "0"
	}
	return sign + whole + "." + frac
}
