// Package bidrules holds the bid acceptance rule and the time-remaining
// formatter. Everything here is pure: callers pass the clock in.
package bidrules

import (
	"fmt"
	"math"
	"strings"
	"time"

	"auction-marketplace/internal/biddingerrors"
	"auction-marketplace/internal/models"

	"github.com/shopspring/decimal"
)

// monetaryPrecision is the number of decimal places money is compared at.
const monetaryPrecision int32 = 2

const (
	// maxIntegerDigits matches the NUMERIC(14,2) money columns.
	maxIntegerDigits = 12
	// maxScale bounds the fractional digits accepted before rounding.
	maxScale = 20
)

// MaxAmount is the largest amount a bid may carry.
var MaxAmount = decimal.RequireFromString("999999999999.99")

// AuctionState is the part of an auction the rule looks at.
type AuctionState struct {
	Status     models.AuctionStatus
	CurrentBid float64
	EndTime    time.Time
}

// StateOf extracts the rule inputs from an auction.
func StateOf(a models.Auction) AuctionState {
	return AuctionState{Status: a.Status, CurrentBid: a.CurrentBid, EndTime: a.EndTime}
}

// ParseAmount parses a user-supplied amount. Anything that is not a positive
// finite number fails with ErrInvalidAmount.
func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, fmt.Errorf("%w: empty amount", biddingerrors.ErrInvalidAmount)
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", biddingerrors.ErrInvalidAmount, raw)
	}
	return validAmount(amount)
}

// AmountFromFloat is ParseAmount for values that are already numeric.
func AmountFromFloat(v float64) (decimal.Decimal, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero, fmt.Errorf("%w: not a finite number", biddingerrors.ErrInvalidAmount)
	}
	return validAmount(decimal.NewFromFloat(v))
}

// validAmount bounds the magnitude from the coefficient and exponent before
// rounding, since rounding an exponent like 1e20000000 expands it in full.
func validAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("%w: amount must be positive", biddingerrors.ErrInvalidAmount)
	}
	magnitude := int64(amount.NumDigits()) + int64(amount.Exponent())
	if magnitude > maxIntegerDigits {
		return decimal.Zero, fmt.Errorf("%w: amount exceeds %s", biddingerrors.ErrInvalidAmount, MaxAmount.StringFixed(monetaryPrecision))
	}
	if magnitude < -int64(monetaryPrecision) {
		return decimal.Zero, fmt.Errorf("%w: amount must be positive", biddingerrors.ErrInvalidAmount)
	}
	if int64(amount.Exponent()) < -maxScale {
		return decimal.Zero, fmt.Errorf("%w: too many decimal places", biddingerrors.ErrInvalidAmount)
	}
	amount = amount.Round(monetaryPrecision)
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: amount must be positive", biddingerrors.ErrInvalidAmount)
	}
	if amount.GreaterThan(MaxAmount) {
		return decimal.Zero, fmt.Errorf("%w: amount exceeds %s", biddingerrors.ErrInvalidAmount, MaxAmount.StringFixed(monetaryPrecision))
	}
	if f, _ := amount.Float64(); math.IsInf(f, 0) {
		return decimal.Zero, fmt.Errorf("%w: not a finite number", biddingerrors.ErrInvalidAmount)
	}
	return amount, nil
}

// Evaluate decides whether rawAmount may be recorded against an auction in
// state at now. It returns the parsed amount when the bid is acceptable.
//
// The auction checks run before the amount is parsed, so a closed auction
// rejects every input with the same error.
func Evaluate(rawAmount string, state AuctionState, now time.Time) (decimal.Decimal, error) {
	if err := checkOpen(state, now); err != nil {
		return decimal.Zero, err
	}
	amount, err := ParseAmount(rawAmount)
	if err != nil {
		return decimal.Zero, err
	}
	if err := checkAboveCurrent(amount, state); err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}

// Check is Evaluate for an amount that is already numeric. Stores use it to
// re-apply the rule while holding the auction row.
func Check(amount float64, state AuctionState, now time.Time) error {
	if err := checkOpen(state, now); err != nil {
		return err
	}
	d, err := AmountFromFloat(amount)
	if err != nil {
		return err
	}
	return checkAboveCurrent(d, state)
}

func checkOpen(state AuctionState, now time.Time) error {
	if state.Status != models.StatusActive {
		return fmt.Errorf("%w: status is %q", biddingerrors.ErrInvalidAuctionState, state.Status)
	}
	if !now.Before(state.EndTime) {
		return fmt.Errorf("%w: closed at %s", biddingerrors.ErrAuctionExpired, state.EndTime.UTC().Format(time.RFC3339))
	}
	return nil
}

func checkAboveCurrent(amount decimal.Decimal, state AuctionState) error {
	current := decimal.NewFromFloat(state.CurrentBid).Round(monetaryPrecision)
	if amount.LessThanOrEqual(current) {
		return fmt.Errorf("%w: current bid is %s", biddingerrors.ErrBidTooLow, current.StringFixed(monetaryPrecision))
	}
	return nil
}

// MinNextBid is the smallest amount that beats currentBid.
func MinNextBid(currentBid float64) float64 {
	step := decimal.New(1, -monetaryPrecision)
	next, _ := decimal.NewFromFloat(currentBid).Round(monetaryPrecision).Add(step).Float64()
	return next
}
