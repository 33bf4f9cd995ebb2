// Package trend provides pure functions over historical cost series:
// growth and volatility analysis plus a least-squares cost forecast.
package trend

import (
	"math"
	"sort"
	"time"
)

// Point is one historical observation of total cost.
type Point struct {
	Date time.Time `json:"date"`
	Cost float64   `json:"cost"`
}

// Direction labels the overall movement of a series.
type Direction string

const (
	Stable     Direction = "STABLE"
	Increasing Direction = "INCREASING"
	Decreasing Direction = "DECREASING"
)

// Level is a coarse confidence or volatility grade.
type Level string

const (
	LevelLow     Level = "LOW"
	LevelMedium  Level = "MEDIUM"
	LevelHigh    Level = "HIGH"
	LevelUnknown Level = "UNKNOWN"
)

// Coefficient-of-variation boundaries shared by the volatility grade and
// the forecast confidence label.
const (
	cvLow    = 0.1
	cvMedium = 0.3
)

// stableBand is the growth-rate band, in percent, still considered stable.
const stableBand = 5.0

// Analysis summarizes the movement of a historical cost series.
type Analysis struct {
	GrowthRate         float64   `json:"growth_rate"`
	Direction          Direction `json:"trend_direction"`
	Volatility         Level     `json:"cost_volatility"`
	ProjectedNextMonth float64   `json:"projected_next_month"`
}

// Analyze computes growth rate, direction, volatility, and a naive
// next-month projection (last value plus the most recent delta, floored at
// zero). Fewer than two points yields a stable analysis projecting
// currentCost forward.
func Analyze(points []Point, currentCost float64) Analysis {
	costs := sortedCosts(points)
	if len(costs) < 2 {
		return Analysis{
			GrowthRate:         0,
			Direction:          Stable,
			Volatility:         LevelUnknown,
			ProjectedNextMonth: currentCost,
		}
	}

	first := costs[0]
	if first == 0 {
		first = 1 // avoid dividing by a zero first period
	}
	growth := (costs[len(costs)-1] - costs[0]) / first * 100

	direction := Stable
	switch {
	case growth > stableBand:
		direction = Increasing
	case growth < -stableBand:
		direction = Decreasing
	}

	projected := costs[len(costs)-1] + (costs[len(costs)-1] - costs[len(costs)-2])
	if projected < 0 {
		projected = 0
	}

	return Analysis{
		GrowthRate:         growth,
		Direction:          direction,
		Volatility:         volatility(costs),
		ProjectedNextMonth: projected,
	}
}

// MonthForecast is one projected month in a forecast.
type MonthForecast struct {
	Month         string  `json:"month"`
	PredictedCost float64 `json:"predicted_cost"`
}

// Forecast projects total cost over forecastDays starting from now.
//
// With three or more points an ordinary least-squares line is fitted over
// the series index and projected forward month by month. The confidence
// interval is ±1.96 standard deviations scaled by the month count, a 95%
// interval under a normality assumption; it is an approximation, not a
// validated distributional claim. With fewer than three points the fit is
// skipped and currentCost is repeated flat with LOW confidence.
type ForecastResult struct {
	PeriodDays int             `json:"forecast_period_days"`
	TotalCost  float64         `json:"forecasted_total_cost"`
	Low        float64         `json:"confidence_low"`
	High       float64         `json:"confidence_high"`
	Monthly    []MonthForecast `json:"monthly_breakdown"`
	Drivers    []string        `json:"cost_drivers"`
	Confidence Level           `json:"forecast_confidence"`
}

// Forecast projects costs forecastDays ahead of now. See ForecastResult for
// the method and its caveats.
func Forecast(points []Point, forecastDays int, currentCost float64, now time.Time) ForecastResult {
	if forecastDays <= 0 {
		forecastDays = 90
	}
	months := forecastDays/30 + 1

	costs := sortedCosts(points)
	if len(costs) < 3 {
		monthly := make([]MonthForecast, 0, months)
		total := 0.0
		for i := 1; i <= months; i++ {
			monthly = append(monthly, MonthForecast{
				Month:         monthLabel(now, i),
				PredictedCost: currentCost,
			})
			total += currentCost
		}
		return ForecastResult{
			PeriodDays: forecastDays,
			TotalCost:  total,
			Low:        total * 0.8,
			High:       total * 1.2,
			Monthly:    monthly,
			Drivers:    []string{"Insufficient historical data for detailed analysis"},
			Confidence: LevelLow,
		}
	}

	slope, intercept := leastSquares(costs)
	n := len(costs)

	monthly := make([]MonthForecast, 0, months)
	total := 0.0
	for i := 1; i <= months; i++ {
		predicted := intercept + slope*float64(n-1+i)
		if predicted < 0 {
			predicted = 0
		}
		monthly = append(monthly, MonthForecast{
			Month:         monthLabel(now, i),
			PredictedCost: predicted,
		})
		total += predicted
	}

	mean, stdDev := meanStdDev(costs)
	margin := 1.96 * stdDev * float64(months)
	low := total - margin
	if low < 0 {
		low = 0
	}

	return ForecastResult{
		PeriodDays: forecastDays,
		TotalCost:  total,
		Low:        low,
		High:       total + margin,
		Monthly:    monthly,
		Drivers:    drivers(slope, mean, total, currentCost),
		Confidence: confidence(mean, stdDev),
	}
}

func sortedCosts(points []Point) []float64 {
	ordered := make([]Point, len(points))
	copy(ordered, points)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Date.Before(ordered[j].Date) })

	costs := make([]float64, 0, len(ordered))
	for _, p := range ordered {
		costs = append(costs, p.Cost)
	}
	return costs
}

// leastSquares fits cost = intercept + slope*index over indexes 0..n-1.
func leastSquares(costs []float64) (slope, intercept float64) {
	n := float64(len(costs))
	xMean := (n - 1) / 2
	yMean := 0.0
	for _, c := range costs {
		yMean += c
	}
	yMean /= n

	num := 0.0
	den := 0.0
	for i, c := range costs {
		dx := float64(i) - xMean
		num += dx * (c - yMean)
		den += dx * dx
	}
	if den == 0 {
		return 0, yMean
	}
	return num / den, yMean - (num/den)*xMean
}

// meanStdDev returns the mean and population standard deviation.
func meanStdDev(costs []float64) (mean, stdDev float64) {
	n := float64(len(costs))
	for _, c := range costs {
		mean += c
	}
	mean /= n

	variance := 0.0
	for _, c := range costs {
		variance += (c - mean) * (c - mean)
	}
	variance /= n
	return mean, math.Sqrt(variance)
}

func volatility(costs []float64) Level {
	mean, stdDev := meanStdDev(costs)
	if mean <= 0 {
		return LevelUnknown
	}
	return gradeCV(stdDev / mean)
}

func confidence(mean, stdDev float64) Level {
	if mean <= 0 {
		return LevelLow
	}
	switch g := gradeCV(stdDev / mean); g {
	case LevelLow:
		return LevelHigh // low variation means high forecast confidence
	case LevelMedium:
		return LevelMedium
	default:
		return LevelLow
	}
}

func gradeCV(cv float64) Level {
	switch {
	case cv <= cvLow:
		return LevelLow
	case cv <= cvMedium:
		return LevelMedium
	default:
		return LevelHigh
	}
}

func drivers(slope, mean, total, currentCost float64) []string {
	var out []string
	switch {
	case slope > 0:
		out = append(out, "Increasing resource usage trend")
		if slope > mean*0.1 {
			out = append(out, "Rapid growth pattern detected")
		}
	case slope < 0:
		out = append(out, "Decreasing cost trend")
	default:
		out = append(out, "Stable cost pattern")
	}
	if currentCost > 0 && total > currentCost*2 {
		out = append(out, "Significant cost increase projected")
	}
	return out
}

func monthLabel(now time.Time, monthsAhead int) string {
	return now.AddDate(0, 0, 30*monthsAhead).Format("2006-01")
}
