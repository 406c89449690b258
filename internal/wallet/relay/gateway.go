package relay

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github/chapool/go-remote-wallet/internal/metrics"
	"github/chapool/go-remote-wallet/internal/wallet/walleterr"
	"golang.org/x/time/rate"
)

// GatewayConfig configures a MeteredGateway.
type GatewayConfig struct {
	Endpoints      []string
	Timeout        time.Duration
	Schedule       CostSchedule
	Budget         *Budget
	RequestsPerSec float64
	Burst          int
}

// MeteredGateway is the client-side relay: it prices requests with a CostSchedule, pays them
// from a cycle Budget, rate limits them and forwards them to one of several JSON-RPC endpoints,
// moving on to the next endpoint after a transport failure.
type MeteredGateway struct {
	urls    []string
	clients []*rpc.Client
	mu      sync.RWMutex
	current int

	schedule CostSchedule
	budget   *Budget
	limiter  *rate.Limiter
	timeout  time.Duration
	metrics  *metrics.Service
}

var _ Gateway = (*MeteredGateway)(nil)

// NewMeteredGateway dials all endpoints. Endpoints that fail to dial are retried on use.
func NewMeteredGateway(ctx context.Context, cfg GatewayConfig, metricsService *metrics.Service) (*MeteredGateway, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, errors.New("at least one relay endpoint is required")
	}

	clients := make([]*rpc.Client, 0, len(cfg.Endpoints))
	for _, url := range cfg.Endpoints {
		client, err := rpc.DialContext(ctx, url)
		if err != nil {
			log.Warn().
				Str("url", url).
				Err(err).
				Msg("Failed to connect to relay endpoint, will retry on use")
			clients = append(clients, nil)
			continue
		}
		clients = append(clients, client)
	}

	if allClientsNil(clients) {
		return nil, errors.New("failed to connect to any relay endpoint")
	}

	return newMeteredGateway(cfg.Endpoints, clients, cfg, metricsService), nil
}

// NewMeteredGatewayWithClients builds a gateway on already connected clients.
func NewMeteredGatewayWithClients(clients []*rpc.Client, cfg GatewayConfig, metricsService *metrics.Service) *MeteredGateway {
	urls := make([]string, len(clients))
	for i := range urls {
		urls[i] = "inproc"
	}
	return newMeteredGateway(urls, clients, cfg, metricsService)
}

func newMeteredGateway(urls []string, clients []*rpc.Client, cfg GatewayConfig, metricsService *metrics.Service) *MeteredGateway {
	schedule := cfg.Schedule
	if schedule.SubnetNodes == 0 {
		schedule = NewCostSchedule(0)
	}

	budget := cfg.Budget
	if budget == nil {
		budget = NewBudget(new(uint256.Int).SetAllOne())
	}

	limit := rate.Inf
	if cfg.RequestsPerSec > 0 {
		limit = rate.Limit(cfg.RequestsPerSec)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	g := &MeteredGateway{
		urls:     urls,
		clients:  clients,
		schedule: schedule,
		budget:   budget,
		limiter:  rate.NewLimiter(limit, burst),
		timeout:  cfg.Timeout,
		metrics:  metricsService,
	}
	metricsService.SetCycleBalance(budget.Balance())

	return g
}

func allClientsNil(clients []*rpc.Client) bool {
	for _, client := range clients {
		if client != nil {
			return false
		}
	}
	return true
}

// Close closes all endpoint connections.
func (g *MeteredGateway) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, client := range g.clients {
		if client != nil {
			client.Close()
		}
	}
}

// Budget returns the cycle budget the gateway pays from.
func (g *MeteredGateway) Budget() *Budget {
	return g.budget
}

// RequestCost implements Gateway.
func (g *MeteredGateway) RequestCost(_ context.Context, payload *Payload, maxResponseBytes uint64) (FeeQuote, error) {
	const op = "relay.RequestCost"

	if maxResponseBytes > maxResponseBytesLimit {
		return FeeQuote{}, walleterr.Newf(walleterr.KindRemoteRejected, op,
			"max response size %d exceeds limit %d", maxResponseBytes, maxResponseBytesLimit)
	}

	size, err := payload.Size()
	if err != nil {
		return FeeQuote{}, walleterr.Wrap(walleterr.KindRemoteRejected, op, errors.Wrap(err, "failed to encode payload"))
	}

	return FeeQuote{CycleCost: g.schedule.Cost(size, maxResponseBytes)}, nil
}

// Request implements Gateway. The quoted cost is charged even when the endpoint fails after
// the request left; cycles attached beyond the cost are not taken.
func (g *MeteredGateway) Request(ctx context.Context, payload *Payload, maxResponseBytes uint64, cycles *uint256.Int) (json.RawMessage, error) {
	op := "relay." + payload.Method

	quote, err := g.RequestCost(ctx, payload, maxResponseBytes)
	if err != nil {
		return nil, err
	}

	if cycles == nil || cycles.Lt(quote.CycleCost) {
		g.metrics.ObserveRelayRequest(payload.Method, "underpaid", nil)
		return nil, walleterr.Newf(walleterr.KindRemoteRejected, op,
			"insufficient cycles attached: required %s", quote.CycleCost.Dec())
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, walleterr.Wrap(walleterr.KindRemoteUnavailable, op, err)
	}

	if err := g.budget.Withdraw(quote.CycleCost); err != nil {
		g.metrics.ObserveRelayRequest(payload.Method, "out_of_cycles", nil)
		return nil, walleterr.Wrap(walleterr.KindRemoteRejected, op, err)
	}
	g.metrics.SetCycleBalance(g.budget.Balance())

	client, idx, err := g.getClient(ctx)
	if err != nil {
		g.budget.Refund(quote.CycleCost)
		g.metrics.SetCycleBalance(g.budget.Balance())
		g.metrics.ObserveRelayRequest(payload.Method, "unavailable", nil)
		return nil, walleterr.Wrap(walleterr.KindRemoteUnavailable, op, err)
	}

	callCtx, cancel := g.withTimeout(ctx)
	defer cancel()

	var raw json.RawMessage
	if err := client.CallContext(callCtx, &raw, payload.Method, payload.Params...); err != nil {
		var rpcErr rpc.Error
		if errors.As(err, &rpcErr) {
			g.metrics.ObserveRelayRequest(payload.Method, "rejected", quote.CycleCost)
			return nil, &walleterr.Error{Kind: walleterr.KindRemoteRejected, Op: op, Message: rpcErr.Error(), Err: err}
		}

		if ctx.Err() == nil {
			log.Warn().
				Str("url", g.urls[idx]).
				Str("method", payload.Method).
				Err(err).
				Msg("Relay endpoint request failed, rotating endpoint")
			g.rotate(idx)
		}
		g.metrics.ObserveRelayRequest(payload.Method, "unavailable", quote.CycleCost)

		return nil, walleterr.Wrap(walleterr.KindRemoteUnavailable, op, err)
	}

	if uint64(len(raw)) > maxResponseBytes {
		g.metrics.ObserveRelayRequest(payload.Method, "oversized", quote.CycleCost)
		return nil, walleterr.Newf(walleterr.KindRemoteRejected, op,
			"response of %d bytes exceeds max response size %d", len(raw), maxResponseBytes)
	}

	g.metrics.ObserveRelayRequest(payload.Method, "ok", quote.CycleCost)

	return raw, nil
}

// getClient returns the current endpoint, redialing endpoints that failed to connect earlier.
func (g *MeteredGateway) getClient(ctx context.Context) (*rpc.Client, int, error) {
	g.mu.RLock()
	start := g.current
	n := len(g.clients)
	g.mu.RUnlock()

	for i := 0; i < n; i++ {
		idx := (start + i) % n

		g.mu.RLock()
		client := g.clients[idx]
		g.mu.RUnlock()

		if client != nil {
			return client, idx, nil
		}

		g.mu.Lock()
		if g.clients[idx] == nil {
			dialed, err := rpc.DialContext(ctx, g.urls[idx])
			if err != nil {
				g.mu.Unlock()
				continue
			}
			g.clients[idx] = dialed
		}
		client = g.clients[idx]
		g.current = idx
		g.mu.Unlock()

		return client, idx, nil
	}

	return nil, 0, errors.New("all relay endpoints are unavailable")
}

func (g *MeteredGateway) rotate(failed int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.current == failed && len(g.clients) > 1 {
		g.current = (failed + 1) % len(g.clients)
	}
}

func (g *MeteredGateway) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}
