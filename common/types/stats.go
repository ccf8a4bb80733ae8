package types

import "time"

// AdapterStats holds monotonically increasing per-adapter counters. The
// owning adapter is the only writer; callers receive value copies.
//
// Fields:
// - TotalTransactions: number of measurements attempted.
// - Successful: number of measurements that reached finality.
// - Failed: number of measurements that failed.
// - TotalFinalityTime: cumulative full-finality time of successful measurements.
// - MevAdjustments: number of measurements whose threshold was raised for MEV.
type AdapterStats struct {
	TotalTransactions uint64
	Successful        uint64
	Failed            uint64
	TotalFinalityTime time.Duration
	MevAdjustments    uint64
}

// AverageFinality returns the mean full-finality time of successful
// measurements, or zero when none succeeded.
func (s AdapterStats) AverageFinality() time.Duration {
	if s.Successful == 0 {
		return 0
	}
	return s.TotalFinalityTime / time.Duration(s.Successful)
}

// SuccessRate returns the fraction of successful measurements in [0,1].
func (s AdapterStats) SuccessRate() float64 {
	if s.TotalTransactions == 0 {
		return 0
	}
	return float64(s.Successful) / float64(s.TotalTransactions)
}

// AdjustmentRate returns the fraction of measurements whose confirmation
// threshold was raised because of MEV pressure.
func (s AdapterStats) AdjustmentRate() float64 {
	if s.TotalTransactions == 0 {
		return 0
	}
	return float64(s.MevAdjustments) / float64(s.TotalTransactions)
}
