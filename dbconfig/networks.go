package dbconfig

import (
	"context"
	"database/sql"
	"math/big"
	"time"

	"github.com/ClipFinance/finality-lib/common/errors"
	"github.com/ClipFinance/finality-lib/common/types"
	"github.com/ClipFinance/finality-lib/dbconfig/models"
)

// GetNetworks returns all networks from the database, optionally filtering by active status.
func (r *DBConfig) GetNetworks(ctx context.Context, activeOnly bool) ([]models.Network, error) {
	db, err := sql.Open("postgres", r.dbConnStr)
	if err != nil {
		return nil, errors.ErrDatabaseConnect
	}
	defer db.Close()

	query := `
      SELECT
          id,
          name,
          class,
          chain_id,
          rpc_url,
          base_gas_price_wei,
          gas_floor_wei,
          gas_limit,
          confirmation_target,
          mev_baseline,
          expected_block_time_ms,
          active,
          created_at,
          updated_at
      FROM networks
  `

	var args []interface{}
	if activeOnly {
		query += " WHERE active = $1"
		args = append(args, true)
	}

	query += " ORDER BY name ASC"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.ErrDatabaseConnect
	}
	defer rows.Close()

	var networks []models.Network
	for rows.Next() {
		network, err := scanNetwork(rows)
		if err != nil {
			return nil, errors.ErrDatabaseConnect
		}
		networks = append(networks, *network)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.ErrDatabaseConnect
	}

	return networks, nil
}

// GetNetworkByName returns the network row with the given name.
func (r *DBConfig) GetNetworkByName(ctx context.Context, name string) (*models.Network, error) {
	if name == "" {
		return nil, errors.ErrNetworkNotFound
	}

	db, err := sql.Open("postgres", r.dbConnStr)
	if err != nil {
		return nil, errors.ErrDatabaseConnect
	}
	defer db.Close()

	row := db.QueryRowContext(ctx, `
       SELECT
           id,
           name,
           class,
           chain_id,
           rpc_url,
           base_gas_price_wei,
           gas_floor_wei,
           gas_limit,
           confirmation_target,
           mev_baseline,
           expected_block_time_ms,
           active,
           created_at,
           updated_at
       FROM networks
       WHERE name = $1
    `, name)

	network, err := scanNetwork(row)
	if err == sql.ErrNoRows {
		return nil, errors.ErrNetworkNotFound
	}
	if err != nil {
		return nil, errors.ErrDatabaseConnect
	}

	return network, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanNetwork(row rowScanner) (*models.Network, error) {
	var network models.Network
	var rpcUrl sql.NullString
	var class sql.NullString

	err := row.Scan(
		&network.ID,
		&network.Name,
		&class,
		&network.ChainID,
		&rpcUrl,
		&network.BaseGasPriceWei,
		&network.GasFloorWei,
		&network.GasLimit,
		&network.ConfirmationTarget,
		&network.MevBaseline,
		&network.ExpectedBlockTimeMs,
		&network.Active,
		&network.CreatedAt,
		&network.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if rpcUrl.Valid {
		network.RpcUrl = rpcUrl.String
	}
	if class.Valid {
		network.Class = class.String
	}

	return &network, nil
}

// NetworkConfig converts a network row into an adapter configuration.
// Unparseable gas amounts fail with an invalid-config error rather than
// silently defaulting to zero.
func NetworkConfig(network *models.Network) (*types.NetworkConfig, error) {
	basePrice, ok := new(big.Int).SetString(network.BaseGasPriceWei, 10)
	if !ok {
		return nil, errors.ErrInvalidConfig
	}
	gasFloor, ok := new(big.Int).SetString(network.GasFloorWei, 10)
	if !ok {
		return nil, errors.ErrInvalidConfig
	}

	return &types.NetworkConfig{
		Name:               network.Name,
		Class:              types.NetworkClass(network.Class),
		ChainID:            network.ChainID,
		RpcUrl:             network.RpcUrl,
		BaseGasPrice:       basePrice,
		GasFloor:           gasFloor,
		GasLimit:           network.GasLimit,
		ConfirmationTarget: network.ConfirmationTarget,
		MevBaseline:        network.MevBaseline,
		ExpectedBlockTime:  time.Duration(network.ExpectedBlockTimeMs) * time.Millisecond,
	}, nil
}
