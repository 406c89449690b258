package wallet

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github/chapool/go-remote-wallet/internal/util"
	"github/chapool/go-remote-wallet/internal/wallet/address"
	"github/chapool/go-remote-wallet/internal/wallet/executor"
	"github/chapool/go-remote-wallet/internal/wallet/walleterr"
)

// Service is the caller-facing wallet API.
type Service interface {
	// GetAddress derives the account address of the configured key.
	GetAddress(ctx context.Context) (*Account, error)

	// GetBalance reads the latest balance of the account.
	GetBalance(ctx context.Context) (*Balance, error)

	// ExecuteTransaction transfers value from the account. A nil request uses the configured
	// defaults. The error is only set when no run could be started; run failures are reported
	// in the Result.
	ExecuteTransaction(ctx context.Context, req *TransferRequest) (*Result, error)
}

type service struct {
	executor *executor.Executor
	balances BalanceReader
	defaults Defaults
	chainID  int64
}

// NewService creates the wallet service.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(exec *executor.Executor, balances BalanceReader, defaults Defaults, chainID int64) Service {
	return &service{
		executor: exec,
		balances: balances,
		defaults: defaults,
		chainID:  chainID,
	}
}

func (s *service) GetAddress(ctx context.Context) (*Account, error) {
	account, handle, err := s.executor.DeriveAccount(ctx)
	if err != nil {
		return nil, err
	}

	return &Account{
		Address: account,
		KeyName: handle.Name,
		Curve:   string(handle.Curve),
		ChainID: s.chainID,
	}, nil
}

func (s *service) GetBalance(ctx context.Context) (*Balance, error) {
	account, _, err := s.executor.DeriveAccount(ctx)
	if err != nil {
		return nil, err
	}

	wei, err := s.balances.GetBalance(ctx, account)
	if err != nil {
		util.LogFromContext(ctx).Debug().Err(err).Str("account", account.Hex()).Msg("Failed to get balance")
		return nil, err
	}

	return &Balance{Address: account, ChainID: s.chainID, Wei: wei}, nil
}

func (s *service) ExecuteTransaction(ctx context.Context, req *TransferRequest) (*Result, error) {
	txReq, err := s.buildRequest(req)
	if err != nil {
		return nil, err
	}

	return s.executor.Execute(ctx, txReq), nil
}

func (s *service) buildRequest(req *TransferRequest) (executor.TransactionRequest, error) {
	const op = "wallet.ExecuteTransaction"

	to := s.defaults.Recipient
	value := s.defaults.Value

	if req != nil {
		if req.To != "" {
			parsed, err := address.FromHex(req.To)
			if err != nil {
				return executor.TransactionRequest{}, err
			}
			to = parsed
		}
		if req.Value != nil {
			value = req.Value
		}
	}

	if to == (common.Address{}) {
		return executor.TransactionRequest{}, walleterr.New(walleterr.KindConfig, op, "no recipient given and no default recipient configured")
	}
	if value == nil {
		return executor.TransactionRequest{}, walleterr.New(walleterr.KindConfig, op, "no value given and no default value configured")
	}

	return executor.TransactionRequest{To: to, Value: new(big.Int).Set(value)}, nil
}
