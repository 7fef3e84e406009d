package usecase

import (
	"math"
	"strings"
	"time"
)

// refundTier maps a minimum number of hours before the reservation
// start to the refunded fraction of the total price.
type refundTier struct {
	minHours float64
	fraction float64
	label    string
}

// refundTiers is the single canonical cancellation policy. Every
// cancellation path goes through ComputeRefund; there is deliberately
// no second table anywhere in the codebase.
var refundTiers = []refundTier{
	{minHours: 48, fraction: 1.00, label: "100% refund (48 hours or more before start)"},
	{minHours: 24, fraction: 0.75, label: "75% refund (24 to 48 hours before start)"},
	{minHours: 12, fraction: 0.50, label: "50% refund (12 to 24 hours before start)"},
	{minHours: 6, fraction: 0.25, label: "25% refund (6 to 12 hours before start)"},
	{minHours: 0, fraction: 0.00, label: "no refund (less than 6 hours before start)"},
}

// RefundFraction returns the refunded fraction and the policy label for
// a cancellation made hoursUntilStart hours before the reservation.
func RefundFraction(hoursUntilStart float64) (float64, string) {
	for _, tier := range refundTiers {
		if hoursUntilStart >= tier.minHours {
			return tier.fraction, tier.label
		}
	}
	// Negative hours: the reservation already started.
	last := refundTiers[len(refundTiers)-1]
	return last.fraction, last.label
}

// ComputeRefund computes the refund amount for cancelling a reservation
// with the given total price that starts at start, as of now. The
// amount is rounded to two decimals.
func ComputeRefund(totalPrice float64, start, now time.Time) (float64, string) {
	hours := start.Sub(now).Hours()
	fraction, label := RefundFraction(hours)
	amount := math.Round(totalPrice*fraction*100) / 100
	return amount, label
}

// RefundPolicyDescription renders the full tier table for API clients.
func RefundPolicyDescription() string {
	labels := make([]string, len(refundTiers))
	for i, tier := range refundTiers {
		labels[i] = tier.label
	}
	return strings.Join(labels, "; ")
}
