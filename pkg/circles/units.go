// Package circles converts between time-circles (TC), the hour-based display
// unit, and CRC, the on-chain token amount in 18-decimal base units.
package circles

import (
	"math"
	"math/big"
	"time"
)

const (
	// BaseDailyPayout is the CRC issued per day when issuance started.
	BaseDailyPayout = 8.0
	// YearlyInflation is the payout growth factor per Circles year.
	YearlyInflation = 1.07
	// YearDays is the length of a Circles year in days.
	YearDays = 365.25
	// HoursPerDay is the number of time-circles per daily payout.
	HoursPerDay = 24.0
)

// IssuanceStart is when the daily payout was BaseDailyPayout.
var IssuanceStart = time.Date(2020, time.October, 15, 0, 0, 0, 0, time.UTC)

var weiPerCRC = new(big.Float).SetFloat64(1e18)

// PayoutAt returns the daily CRC payout at t. The payout steps up by
// YearlyInflation every Circles year and is linearly interpolated in between.
func PayoutAt(t time.Time) float64 {
	days := t.Sub(IssuanceStart).Hours() / HoursPerDay
	if days <= 0 {
		return BaseDailyPayout
	}
	years := days / YearDays
	whole := math.Floor(years)
	lo := BaseDailyPayout * math.Pow(YearlyInflation, whole)
	hi := lo * YearlyInflation
	return lo + (hi-lo)*(years-whole)
}

// TCToCRC converts a time-circles amount at t to CRC base units, rounding down.
func TCToCRC(t time.Time, tc float64) *big.Int {
	crc := new(big.Float).SetFloat64(tc / HoursPerDay * PayoutAt(t))
	crc.Mul(crc, weiPerCRC)
	out, _ := crc.Int(nil)
	return out
}

// CRCToTC converts CRC base units at t to time-circles.
func CRCToTC(t time.Time, crc *big.Int) float64 {
	if crc == nil {
		return 0
	}
	f := new(big.Float).SetInt(crc)
	f.Quo(f, weiPerCRC)
	v, _ := f.Float64()
	return v / PayoutAt(t) * HoursPerDay
}
