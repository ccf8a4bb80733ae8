package types

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ReorgEvent describes one detected chain reorganization. Events are
// append-only and never mutated after creation.
//
// Fields:
// - BlockNumber: the first affected block number.
// - OriginalHash: the hash previously observed at BlockNumber.
// - ReplacementHash: the hash now reported at BlockNumber.
// - Depth: number of blocks walked forward until a stable hash was found,
//   capped at the monitor's maximum walk depth. Always >= 1.
// - EvidenceScore: MEV-causation evidence in [0,100].
// - LikelyMevCause: true when EvidenceScore exceeds the causation threshold.
// - AffectedTxs: transactions known to be affected by the replacement.
// - DetectedAt: when the mismatch was detected.
type ReorgEvent struct {
	BlockNumber     uint64
	OriginalHash    common.Hash
	ReplacementHash common.Hash
	Depth           uint64
	EvidenceScore   float64
	LikelyMevCause  bool
	AffectedTxs     []common.Hash
	DetectedAt      time.Time
}

// ReorgStats holds cumulative reorganization statistics for one network.
type ReorgStats struct {
	TotalReorgs      uint64
	MevAttributed    uint64
	MevAttributedPct float64
	AverageDepth     float64
}
