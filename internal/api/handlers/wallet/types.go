package wallet

import (
	wallettypes "github/chapool/go-remote-wallet/internal/wallet"
)

type AddressResponse struct {
	Address string `json:"address"`
	KeyName string `json:"keyName"`
	Curve   string `json:"curve"`
	ChainID int64  `json:"chainId"`
}

func newAddressResponse(account *wallettypes.Account) *AddressResponse {
	return &AddressResponse{
		Address: account.Address.Hex(),
		KeyName: account.KeyName,
		Curve:   account.Curve,
		ChainID: account.ChainID,
	}
}

type BalanceResponse struct {
	Address string `json:"address"`
	ChainID int64  `json:"chainId"`
	Wei     string `json:"wei"`
}

func newBalanceResponse(balance *wallettypes.Balance) *BalanceResponse {
	return &BalanceResponse{
		Address: balance.Address.Hex(),
		ChainID: balance.ChainID,
		Wei:     balance.Wei.String(),
	}
}

// PostTransactionPayload is the optional body of POST /api/v1/wallet/transactions. Empty fields
// fall back to the configured defaults.
type PostTransactionPayload struct {
	To    string `json:"to"`
	Value string `json:"value"`
}
