package models

import (
	"time"
)

// Network is one row of the networks table. Gas amounts are stored as
// decimal strings to keep wei precision through the numeric column type.
type Network struct {
	ID                  int64
	Name                string
	Class               string
	ChainID             uint64
	RpcUrl              string
	BaseGasPriceWei     string
	GasFloorWei         string
	GasLimit            uint64
	ConfirmationTarget  uint64
	MevBaseline         float64
	ExpectedBlockTimeMs int64
	Active              bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
