package executor

import (
	"context"
	"math/big"

	"github.com/pkg/errors"
)

// maxFee = baseFee * eip1559FeeMultiplier + tip
const eip1559FeeMultiplier = 2

type gasFees struct {
	tipCap *big.Int
	feeCap *big.Int
}

func (e *Executor) resolveFees(ctx context.Context) (gasFees, error) {
	tipCap := e.cfg.MaxPriorityFee
	if tipCap == nil {
		suggested, err := e.ledger.MaxPriorityFeePerGas(ctx)
		if err != nil {
			return gasFees{}, errors.Wrap(err, "failed to suggest gas tip cap")
		}
		tipCap = suggested
	}

	if e.cfg.MaxFeePerGas != nil {
		if e.cfg.MaxFeePerGas.Cmp(tipCap) < 0 {
			return gasFees{}, errors.Errorf("max fee per gas %s below tip cap %s", e.cfg.MaxFeePerGas, tipCap)
		}
		return gasFees{tipCap: tipCap, feeCap: e.cfg.MaxFeePerGas}, nil
	}

	baseFee, err := e.ledger.LatestBaseFee(ctx)
	if err != nil {
		return gasFees{}, errors.Wrap(err, "failed to get latest base fee")
	}

	feeCap := new(big.Int).Add(new(big.Int).Mul(baseFee, big.NewInt(eip1559FeeMultiplier)), tipCap)

	return gasFees{tipCap: tipCap, feeCap: feeCap}, nil
}
