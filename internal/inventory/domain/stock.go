package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ReorderHistoryLimit is how many recent receipts feed the reorder suggestion.
const ReorderHistoryLimit = 12

// TotalStock sums remaining units over lots usable at now.
func TotalStock(batches []Batch, now time.Time) int {
	total := 0
	for i := range batches {
		if batches[i].IsUsable(now) {
			total += batches[i].QuantityRemaining
		}
	}
	return total
}

// Valuation sums remaining × cost over lots usable at now. The result is exact.
func Valuation(batches []Batch, now time.Time) decimal.Decimal {
	total := decimal.Zero
	for i := range batches {
		b := &batches[i]
		if b.IsUsable(now) {
			total = total.Add(b.CostPerUnit.Mul(decimal.NewFromInt(int64(b.QuantityRemaining))))
		}
	}
	return total
}

// ExpiringWithin returns stored-active lots with stock whose expiry date falls on
// or before today+windowDays, soonest first. Lots already past expiry are included.
func ExpiringWithin(batches []Batch, now time.Time, windowDays int) []Batch {
	cutoff := DateOf(now).AddDate(0, 0, windowDays)
	out := make([]Batch, 0)
	for _, b := range batches {
		if b.Status != BatchActive || b.QuantityRemaining <= 0 || b.ExpiryDate == nil {
			continue
		}
		if !DateOf(*b.ExpiryDate).After(cutoff) {
			out = append(out, b)
		}
	}
	SortFEFO(out)
	return out
}

// SortFEFO orders lots first-expired-first-out: earliest expiry first, lots
// without expiry last, ties by receipt time.
func SortFEFO(batches []Batch) {
	sort.SliceStable(batches, func(i, j int) bool {
		a, b := batches[i].ExpiryDate, batches[j].ExpiryDate
		switch {
		case a == nil && b == nil:
			return batches[i].ReceivedDate.Before(batches[j].ReceivedDate)
		case a == nil:
			return false
		case b == nil:
			return true
		case !a.Equal(*b):
			return a.Before(*b)
		default:
			return batches[i].ReceivedDate.Before(batches[j].ReceivedDate)
		}
	})
}

// NearestExpiry returns the earliest expiry date among lots usable at now.
func NearestExpiry(batches []Batch, now time.Time) *time.Time {
	var nearest *time.Time
	for i := range batches {
		b := &batches[i]
		if !b.IsUsable(now) || b.ExpiryDate == nil {
			continue
		}
		if nearest == nil || b.ExpiryDate.Before(*nearest) {
			d := *b.ExpiryDate
			nearest = &d
		}
	}
	return nearest
}

// SuggestReorder projects demand for months months from recent receipts: the
// received quantities are summed per calendar month, averaged over the months
// that had receipts, and scaled. The result is truncated toward zero.
func SuggestReorder(receipts []Batch, months int) (int, error) {
	if months < 1 {
		return 0, InvalidQuantity("months must be at least 1, got %d", months)
	}
	if len(receipts) == 0 {
		return 0, nil
	}

	perMonth := make(map[[2]int]int)
	for _, b := range receipts {
		y, m, _ := b.ReceivedDate.UTC().Date()
		perMonth[[2]int{y, int(m)}] += b.QuantityReceived
	}

	sum := 0
	for _, qty := range perMonth {
		sum += qty
	}
	return sum * months / len(perMonth), nil
}

// UsageSummary describes recent consumption of one product.
type UsageSummary struct {
	WindowDays         int             `json:"window_days"`
	TotalUsed          int             `json:"total_used"`
	UsageCount         int             `json:"usage_count"`
	AverageDailyUsage  decimal.Decimal `json:"average_daily_usage"`
	CurrentStock       int             `json:"current_stock"`
	DaysUntilDepletion *int            `json:"days_until_depletion,omitempty"`
}

// SummarizeUsage folds consumption movements into a usage summary.
func SummarizeUsage(movements []Movement, currentStock, windowDays int) UsageSummary {
	s := UsageSummary{WindowDays: windowDays, CurrentStock: currentStock, AverageDailyUsage: decimal.Zero}
	for _, m := range movements {
		if m.Type != MovementConsumption {
			continue
		}
		s.TotalUsed += -m.Delta
		s.UsageCount++
	}
	if windowDays <= 0 || s.TotalUsed == 0 {
		return s
	}

	avg := decimal.NewFromInt(int64(s.TotalUsed)).Div(decimal.NewFromInt(int64(windowDays)))
	s.AverageDailyUsage = avg.Round(2)
	days := int(decimal.NewFromInt(int64(currentStock)).Div(avg).IntPart())
	s.DaysUntilDepletion = &days
	return s
}
