package dbconfig

import (
	"context"
	"database/sql"
	"math/big"

	"github.com/ClipFinance/finality-lib/common/errors"
	"github.com/ClipFinance/finality-lib/common/types"
	"github.com/google/uuid"
)

// RecordMeasurement appends a finished measurement to the measurements
// table. The record identifier is generated here so a failed insert never
// leaves a half-assigned id in the caller.
//
// Parameters:
// - ctx: the context for managing the request.
// - network: the name of the measured network.
// - m: the measurement to record.
//
// Returns:
// - string: the sink-assigned record identifier.
// - error: an error if the append fails.
func (r *DBConfig) RecordMeasurement(ctx context.Context, network string, m *types.FinalityMeasurement) (string, error) {
	db, err := sql.Open("postgres", r.dbConnStr)
	if err != nil {
		return "", errors.ErrDatabaseConnect
	}
	defer db.Close()

	recordID := uuid.New().String()

	var reorgDepth uint64
	var reorgEvidence float64
	if m.Reorg != nil {
		reorgDepth = m.Reorg.Depth
		reorgEvidence = m.Reorg.EvidenceScore
	}

	var mevStart, mevEnd float64
	if m.MevAtStart != nil {
		mevStart = m.MevAtStart.Score
	}
	if m.MevAtEnd != nil {
		mevEnd = m.MevAtEnd.Score
	}

	_, err = db.ExecContext(ctx, `
       INSERT INTO measurements (
           id,
           measurement_id,
           network,
           tx_hash,
           started_at,
           base_threshold,
           adjusted_threshold,
           initial_confirmation_ms,
           full_finality_ms,
           mev_score_start,
           mev_score_end,
           reorged,
           reorg_depth,
           reorg_evidence,
           base_cost_wei,
           gas_premium_wei,
           mev_premium_wei,
           success,
           error_detail,
           created_at
       ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, NOW())
    `,
		recordID,
		m.ID,
		network,
		m.TxHash.Hex(),
		m.StartedAt,
		m.BaseThreshold,
		m.AdjustedThreshold,
		m.InitialConfirmation.Milliseconds(),
		m.FullFinality.Milliseconds(),
		mevStart,
		mevEnd,
		m.Reorged,
		reorgDepth,
		reorgEvidence,
		amountString(m.Cost.BaseCost),
		amountString(m.Cost.GasPremium),
		amountString(m.Cost.MevPremium),
		m.Success,
		m.Error,
	)
	if err != nil {
		return "", errors.ErrDatabaseConnect
	}

	return recordID, nil
}

// RecordError appends a campaign error to the measurement_errors table.
//
// Parameters:
// - ctx: the context for managing the request.
// - network: the name of the affected network.
// - opContext: what the campaign was doing when the error occurred.
// - detail: the error to record.
//
// Returns:
// - error: an error if the append fails.
func (r *DBConfig) RecordError(ctx context.Context, network string, opContext string, detail error) error {
	db, err := sql.Open("postgres", r.dbConnStr)
	if err != nil {
		return errors.ErrDatabaseConnect
	}
	defer db.Close()

	var message string
	if detail != nil {
		message = detail.Error()
	}

	_, err = db.ExecContext(ctx, `
       INSERT INTO measurement_errors (
           id,
           network,
           op_context,
           detail,
           created_at
       ) VALUES ($1, $2, $3, $4, NOW())
    `,
		uuid.New().String(),
		network,
		opContext,
		message,
	)
	if err != nil {
		return errors.ErrDatabaseConnect
	}

	return nil
}

func amountString(amount *big.Int) string {
	if amount == nil {
		return "0"
	}
	return amount.String()
}
