package mevmonitor

import (
	"time"

	"github.com/ClipFinance/finality-lib/common/types"
)

// trendDelta is the window first-vs-last score difference past which the
// signal counts as moving.
const trendDelta = 5.0

// CurrentConditions returns a read-only snapshot of the monitor's current
// signal: smoothed score, short-window rolling average, trend, categorical
// risk level and a derived recommendation.
func (m *Monitor) CurrentConditions() *types.MevConditions {
	m.mu.RLock()
	score := m.smoothed
	window := make([]float64, len(m.window))
	copy(window, m.window)
	m.mu.RUnlock()

	avg := score
	if len(window) > 0 {
		var sum float64
		for _, v := range window {
			sum += v
		}
		avg = sum / float64(len(window))
	}

	risk := RiskLevelFor(score)

	return &types.MevConditions{
		Score:          score,
		RollingAverage: avg,
		Trend:          trendOf(window),
		RiskLevel:      risk,
		Recommendation: recommendationFor(risk),
		SampledAt:      time.Now(),
	}
}

// RiskLevelFor maps a 0-100 MEV score onto a categorical risk level.
func RiskLevelFor(score float64) types.MevRiskLevel {
	switch {
	case score < 10:
		return types.RiskMinimal
	case score < 25:
		return types.RiskLow
	case score < 50:
		return types.RiskMedium
	case score < 75:
		return types.RiskHigh
	default:
		return types.RiskExtreme
	}
}

func trendOf(window []float64) types.MevTrend {
	if len(window) < 2 {
		return types.TrendStable
	}
	delta := window[len(window)-1] - window[0]
	switch {
	case delta > trendDelta:
		return types.TrendIncreasing
	case delta < -trendDelta:
		return types.TrendDecreasing
	default:
		return types.TrendStable
	}
}

func recommendationFor(risk types.MevRiskLevel) types.MevRecommendation {
	switch risk {
	case types.RiskExtreme:
		return types.MevRecommendation{
			Action: types.ActionDelay,
			Reason: "extraction pressure is extreme, delay submission until it subsides",
		}
	case types.RiskHigh:
		return types.MevRecommendation{
			Action: types.ActionRaiseThreshold,
			Reason: "high extraction pressure, wait for extra confirmations",
		}
	case types.RiskMedium:
		return types.MevRecommendation{
			Action: types.ActionMonitor,
			Reason: "moderate extraction pressure, proceed while watching conditions",
		}
	default:
		return types.MevRecommendation{
			Action: types.ActionProceed,
			Reason: "extraction pressure is within the network baseline",
		}
	}
}
