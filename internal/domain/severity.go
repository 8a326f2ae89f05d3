package domain

// Severity grades the urgency of a replenishment risk.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
	SeverityUnknown  Severity = "UNKNOWN"
)

var severityRanks = map[Severity]int{
	SeverityCritical: 1,
	SeverityHigh:     2,
	SeverityMedium:   3,
	SeverityLow:      4,
	SeverityUnknown:  5,
}

// Rank returns the sort rank of a severity; lower sorts first.
// Unrecognized values rank with UNKNOWN.
func (s Severity) Rank() int {
	if r, ok := severityRanks[s]; ok {
		return r
	}
	return severityRanks[SeverityUnknown]
}

// SeverityFor maps current stock and the simulated days until stock-out
// to an alert severity. Total over all inputs: zero or negative stock is
// always CRITICAL regardless of the forecast.
func SeverityFor(currentStock float64, daysUntilStockout int) Severity {
	if currentStock <= 0 {
		return SeverityCritical
	}
	switch {
	case daysUntilStockout <= 7:
		return SeverityCritical
	case daysUntilStockout <= 14:
		return SeverityHigh
	case daysUntilStockout <= 30:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// RuptureRisk scores stock-out exposure on a coarse 0-100 scale. It is
// intentionally independent from the four-level severity so downstream
// scoring can weight the two separately.
func RuptureRisk(daysUntilStockout int) float64 {
	switch {
	case daysUntilStockout <= 0:
		return 100
	case daysUntilStockout <= 7:
		return 90
	case daysUntilStockout <= 14:
		return 70
	case daysUntilStockout <= 30:
		return 40
	default:
		return 10
	}
}
