package types

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// MevTrend represents the short-window direction of the MEV pressure signal.
type MevTrend string

const (
	TrendIncreasing MevTrend = "increasing"
	TrendDecreasing MevTrend = "decreasing"
	TrendStable     MevTrend = "stable"
)

// MevRiskLevel represents the categorical risk derived from the MEV score.
type MevRiskLevel string

const (
	RiskMinimal MevRiskLevel = "minimal"
	RiskLow     MevRiskLevel = "low"
	RiskMedium  MevRiskLevel = "medium"
	RiskHigh    MevRiskLevel = "high"
	RiskExtreme MevRiskLevel = "extreme"
)

// MevAction represents the recommended reaction to current MEV conditions.
type MevAction string

const (
	// ActionDelay recommends postponing submission until pressure subsides.
	ActionDelay MevAction = "delay"
	// ActionRaiseThreshold recommends waiting for extra confirmations.
	ActionRaiseThreshold MevAction = "raise_threshold"
	// ActionMonitor recommends proceeding while watching conditions.
	ActionMonitor MevAction = "monitor"
	// ActionProceed indicates no adjustment is needed.
	ActionProceed MevAction = "proceed"
)

// MevRecommendation is the derived reaction to a conditions snapshot.
type MevRecommendation struct {
	Action MevAction
	Reason string
}

// MevConditions is a read-only snapshot of the MEV monitor's current signal.
//
// Fields:
// - Score: the smoothed MEV pressure score in [0,100].
// - RollingAverage: average of the short observation window.
// - Trend: direction of the signal over the window.
// - RiskLevel: categorical risk derived from Score.
// - Recommendation: derived reaction to the snapshot.
// - SampledAt: when the snapshot was taken.
type MevConditions struct {
	Score          float64
	RollingAverage float64
	Trend          MevTrend
	RiskLevel      MevRiskLevel
	Recommendation MevRecommendation
	SampledAt      time.Time
}

// MevIndicators holds the per-block heuristic indicator values, each in [0,100].
//
// Fields:
// - GasVariance: gas price dispersion normalized to the network constant.
// - HighGasShare: fraction of transactions above the high-gas threshold.
// - BotActivity: fraction of transactions touching known extraction bots.
// - Arbitrage: repeated-value heuristic for arbitrage activity.
// - Sandwich: high-low-high gas triplet heuristic for sandwich patterns.
// - Liquidation: high-gas lending-protocol interaction proxy.
// - GasCompetition: top-vs-median gas price pressure.
// - DexVolume: high-gas-limit value-transfer proxy for DEX volume.
type MevIndicators struct {
	GasVariance    float64
	HighGasShare   float64
	BotActivity    float64
	Arbitrage      float64
	Sandwich       float64
	Liquidation    float64
	GasCompetition float64
	DexVolume      float64
}

// BlockObservation is a single entry in a monitor's bounded observation buffer.
type BlockObservation struct {
	BlockNumber uint64
	Hash        common.Hash
	Timestamp   time.Time
	Indicators  MevIndicators
	Score       float64
}
