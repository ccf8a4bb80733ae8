package types

import "context"

// MeasurementSink is a write-only append target for campaign output. The
// core never reads back through this interface.
type MeasurementSink interface {
	// RecordMeasurement appends a finished measurement.
	//
	// Parameters:
	// - ctx: the context for managing the request.
	// - network: the name of the measured network.
	// - m: the measurement to record.
	//
	// Returns:
	// - string: the sink-assigned record identifier.
	// - error: an error if the append fails.
	RecordMeasurement(ctx context.Context, network string, m *FinalityMeasurement) (string, error)

	// RecordError appends an error observed during a campaign.
	//
	// Parameters:
	// - ctx: the context for managing the request.
	// - network: the name of the affected network.
	// - opContext: what the campaign was doing when the error occurred.
	// - detail: the error to record.
	RecordError(ctx context.Context, network string, opContext string, detail error) error
}
