package relay

import (
	"github.com/holiman/uint256"
)

const (
	defaultSubnetNodes = 13

	baseFeeCycles          = 3_000_000
	perNodeFeeCycles       = 60_000
	perRequestByteCycles   = 400
	perResponseByteCycles  = 800
	maxResponseBytesLimit  = 2 * 1024 * 1024
	defaultMaxResponseSize = 8 * 1024
)

// CostSchedule prices an outcall replicated across the nodes of a subnet:
//
//	(3_000_000 + 60_000·n)·n + 400·n·requestBytes + 800·n·maxResponseBytes
type CostSchedule struct {
	SubnetNodes uint64
}

func NewCostSchedule(subnetNodes uint64) CostSchedule {
	if subnetNodes == 0 {
		subnetNodes = defaultSubnetNodes
	}
	return CostSchedule{SubnetNodes: subnetNodes}
}

// Cost returns the cycles charged for one request.
func (c CostSchedule) Cost(requestBytes uint64, maxResponseBytes uint64) *uint256.Int {
	n := uint256.NewInt(c.SubnetNodes)

	base := new(uint256.Int).Mul(n, uint256.NewInt(perNodeFeeCycles))
	base.Add(base, uint256.NewInt(baseFeeCycles))
	base.Mul(base, n)

	req := new(uint256.Int).Mul(uint256.NewInt(requestBytes), uint256.NewInt(perRequestByteCycles))
	req.Mul(req, n)

	resp := new(uint256.Int).Mul(uint256.NewInt(maxResponseBytes), uint256.NewInt(perResponseByteCycles))
	resp.Mul(resp, n)

	return base.Add(base, req).Add(base, resp)
}
