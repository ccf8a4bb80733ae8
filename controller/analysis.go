package controller

import (
	"math/big"
	"sort"
	"time"

	"github.com/ClipFinance/finality-lib/common/types"
	"github.com/ClipFinance/finality-lib/timer"
)

// NetworkSummary is one network's aggregate line in the analysis.
//
// Fields:
// - Network: the network name.
// - Finality: statistics over the network's successful finality times.
// - AverageCost: mean cost per successful measurement in wei.
// - SuccessRate: the network's campaign success rate in [0,1].
// - MevRisk: the network's MEV risk level at campaign end.
type NetworkSummary struct {
	Network     string
	Finality    timer.DurationStats
	AverageCost *big.Int
	SuccessRate float64
	MevRisk     types.MevRiskLevel
}

// Analysis compares the campaign outcome across networks.
//
// Fields:
// - Summaries: per-network aggregates keyed by network name.
// - Fastest, Slowest: networks with the extreme mean finality times.
// - MedianFinality, MeanFinality: aggregate finality over every successful
//   measurement of the campaign.
// - Cheapest, MostExpensive: networks with the extreme average costs.
// - Ranking: networks ordered by mean finality, fastest first.
// - Recommendation: the suggested network for latency-sensitive workloads.
type Analysis struct {
	Summaries      map[string]*NetworkSummary
	Fastest        string
	Slowest        string
	MedianFinality time.Duration
	MeanFinality   time.Duration
	Cheapest       string
	MostExpensive  string
	Ranking        []string
	Recommendation string
}

// buildAnalysis condenses per-network results into a cross-network
// comparison. Networks without a single successful measurement are listed in
// the summaries but excluded from the extremes and the ranking; when nothing
// succeeded anywhere the analysis is nil.
func buildAnalysis(results map[string]*NetworkResult) *Analysis {
	analysis := &Analysis{
		Summaries: make(map[string]*NetworkSummary, len(results)),
	}

	var allTimes []time.Duration
	for name, result := range results {
		summary := &NetworkSummary{
			Network:     name,
			Finality:    timer.Summarize(result.FinalityTimes),
			AverageCost: new(big.Int),
			SuccessRate: result.SuccessRate,
			MevRisk:     result.MevRisk,
		}
		if result.Successful > 0 {
			summary.AverageCost.Div(result.TotalCost, big.NewInt(int64(result.Successful)))
		}
		analysis.Summaries[name] = summary
		allTimes = append(allTimes, result.FinalityTimes...)
	}

	if len(allTimes) == 0 {
		return nil
	}

	aggregate := timer.Summarize(allTimes)
	analysis.MedianFinality = aggregate.Median
	analysis.MeanFinality = aggregate.Mean

	analysis.Ranking = rankByFinality(analysis.Summaries)
	if len(analysis.Ranking) > 0 {
		analysis.Fastest = analysis.Ranking[0]
		analysis.Slowest = analysis.Ranking[len(analysis.Ranking)-1]
		analysis.Recommendation = analysis.Fastest
	}

	analysis.Cheapest, analysis.MostExpensive = costExtremes(analysis.Summaries)

	return analysis
}

// rankByFinality orders the networks with successful measurements by mean
// finality, fastest first. Ties break by name for a stable order.
func rankByFinality(summaries map[string]*NetworkSummary) []string {
	ranked := make([]string, 0, len(summaries))
	for name, summary := range summaries {
		if summary.Finality.Count > 0 {
			ranked = append(ranked, name)
		}
	}

	sort.Slice(ranked, func(i, j int) bool {
		a, b := summaries[ranked[i]], summaries[ranked[j]]
		if a.Finality.Mean != b.Finality.Mean {
			return a.Finality.Mean < b.Finality.Mean
		}
		return ranked[i] < ranked[j]
	})

	return ranked
}

// costExtremes finds the cheapest and most expensive networks by average
// cost among those with successful measurements.
func costExtremes(summaries map[string]*NetworkSummary) (cheapest, mostExpensive string) {
	names := make([]string, 0, len(summaries))
	for name, summary := range summaries {
		if summary.Finality.Count > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		cost := summaries[name].AverageCost
		if cheapest == "" || cost.Cmp(summaries[cheapest].AverageCost) < 0 {
			cheapest = name
		}
		if mostExpensive == "" || cost.Cmp(summaries[mostExpensive].AverageCost) > 0 {
			mostExpensive = name
		}
	}
	return cheapest, mostExpensive
}
