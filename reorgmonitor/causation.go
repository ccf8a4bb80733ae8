package reorgmonitor

import (
	"math/big"

	"github.com/ClipFinance/finality-lib/common/types"
	"github.com/ClipFinance/finality-lib/mevmonitor"
)

// CausationConfig holds the thresholds and point values of the MEV-causation
// assessment. The constants are empirical heuristics and deliberately
// configurable.
//
// Fields:
// - GasVarianceThreshold: gas-variance indicator value contributing points.
// - SandwichThreshold: sandwich indicator value contributing points.
// - ArbitrageThreshold: arbitrage indicator value contributing points.
// - LiquidationThreshold: liquidation indicator value contributing points.
// - ExtractedValueUSD: extracted-value proxy in USD contributing points.
// - GasVariancePoints..ValuePoints: points per qualifying indicator.
// - CauseThreshold: evidence score above which a reorg counts as MEV-caused.
// - EthPriceUSD: conversion rate for the extracted-value proxy.
type CausationConfig struct {
	GasVarianceThreshold float64
	SandwichThreshold    float64
	ArbitrageThreshold   float64
	LiquidationThreshold float64
	ExtractedValueUSD    float64

	GasVariancePoints float64
	SandwichPoints    float64
	ArbitragePoints   float64
	LiquidationPoints float64
	ValuePoints       float64

	CauseThreshold float64
	EthPriceUSD    float64
}

// DefaultCausationConfig returns the standard causation assessment tuning.
func DefaultCausationConfig() CausationConfig {
	return CausationConfig{
		GasVarianceThreshold: 50,
		SandwichThreshold:    30,
		ArbitrageThreshold:   20,
		LiquidationThreshold: 10,
		ExtractedValueUSD:    1000,

		GasVariancePoints: 20,
		SandwichPoints:    25,
		ArbitragePoints:   15,
		LiquidationPoints: 15,
		ValuePoints:       25,

		CauseThreshold: 50,
		EthPriceUSD:    2500,
	}
}

// AssessCausation scores the MEV evidence of a replacing block from its
// indicator values and extracted-value proxy. The returned score is capped
// at 100; the flag is true iff the score exceeds the causation threshold.
func AssessCausation(ind types.MevIndicators, extractedUSD float64, cfg CausationConfig) (float64, bool) {
	var score float64
	if ind.GasVariance > cfg.GasVarianceThreshold {
		score += cfg.GasVariancePoints
	}
	if ind.Sandwich > cfg.SandwichThreshold {
		score += cfg.SandwichPoints
	}
	if ind.Arbitrage > cfg.ArbitrageThreshold {
		score += cfg.ArbitragePoints
	}
	if ind.Liquidation > cfg.LiquidationThreshold {
		score += cfg.LiquidationPoints
	}
	if extractedUSD > cfg.ExtractedValueUSD {
		score += cfg.ValuePoints
	}
	if score > 100 {
		score = 100
	}
	return score, score > cfg.CauseThreshold
}

var weiPerEth = new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))

// EstimateExtractedValueUSD approximates the value extracted in a block from
// the gas premium paid above the block median: searchers reveal extraction
// profit by how far they outbid the market.
func EstimateExtractedValueUSD(block *types.Block, cfg CausationConfig) float64 {
	if block == nil || len(block.Transactions) == 0 || cfg.EthPriceUSD <= 0 {
		return 0
	}

	med := medianGasPrice(block.Transactions)
	if med == nil || med.Sign() == 0 {
		return 0
	}

	premiumWei := new(big.Int)
	for _, tx := range block.Transactions {
		if tx.GasPrice == nil || tx.GasPrice.Cmp(med) <= 0 {
			continue
		}
		extra := new(big.Int).Sub(tx.GasPrice, med)
		extra.Mul(extra, new(big.Int).SetUint64(tx.Gas))
		premiumWei.Add(premiumWei, extra)
	}

	eth, _ := new(big.Float).Quo(new(big.Float).SetInt(premiumWei), weiPerEth).Float64()
	return eth * cfg.EthPriceUSD
}

func medianGasPrice(txs []types.BlockTransaction) *big.Int {
	prices := make([]*big.Int, 0, len(txs))
	for _, tx := range txs {
		if tx.GasPrice != nil {
			prices = append(prices, tx.GasPrice)
		}
	}
	if len(prices) == 0 {
		return nil
	}
	sortBigInts(prices)
	return prices[len(prices)/2]
}

func sortBigInts(values []*big.Int) {
	for i := 1; i < len(values); i++ {
		for j := i; j > 0 && values[j].Cmp(values[j-1]) < 0; j-- {
			values[j], values[j-1] = values[j-1], values[j]
		}
	}
}

// indicatorsFor derives the indicator values of a replacing block using the
// monitor's indicator tuning.
func (m *Monitor) indicatorsFor(block *types.Block) types.MevIndicators {
	return mevmonitor.ComputeIndicators(block, m.cfg.Indicators)
}
