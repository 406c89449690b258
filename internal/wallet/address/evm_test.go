package address_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-remote-wallet/internal/wallet/address"
	"github/chapool/go-remote-wallet/internal/wallet/walleterr"
)

const (
	// secp256k1 generator G, i.e. the public key of private key 1
	generatorX = "79be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"
	generatorY = "483ada7726a3c4655da4fbfc0e1108a8fd17b448a68554199c47d08ffb10d4b8"

	generatorAddress = "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf"
)

func TestDeriveAddressUncompressed(t *testing.T) {
	material := &address.PublicKeyMaterial{
		PublicKey: hexutil.MustDecode("0x04" + generatorX + generatorY),
	}

	addr, err := address.DeriveAddress(material)
	require.NoError(t, err)
	assert.Equal(t, generatorAddress, addr.Hex())
}

func TestDeriveAddressCompressed(t *testing.T) {
	material := &address.PublicKeyMaterial{
		PublicKey: hexutil.MustDecode("0x02" + generatorX), // Y is even
		ChainCode: make([]byte, 32),
	}

	addr, err := address.DeriveAddress(material)
	require.NoError(t, err)
	assert.Equal(t, generatorAddress, addr.Hex())
}

func TestDeriveAddressMatchesGoEthereum(t *testing.T) {
	for i := 0; i < 8; i++ {
		key, err := crypto.GenerateKey()
		require.NoError(t, err)

		expected := crypto.PubkeyToAddress(key.PublicKey)

		uncompressed, err := address.DeriveAddress(&address.PublicKeyMaterial{PublicKey: crypto.FromECDSAPub(&key.PublicKey)})
		require.NoError(t, err)
		compressed, err := address.DeriveAddress(&address.PublicKeyMaterial{PublicKey: crypto.CompressPubkey(&key.PublicKey)})
		require.NoError(t, err)

		assert.Equal(t, expected, uncompressed)
		assert.Equal(t, expected, compressed)

		again, err := address.DeriveAddress(&address.PublicKeyMaterial{PublicKey: crypto.CompressPubkey(&key.PublicKey)})
		require.NoError(t, err)
		assert.Equal(t, compressed.Hex(), again.Hex())
	}
}

func TestDeriveAddressMalformed(t *testing.T) {
	offCurveY := "483ada7726a3c4655da4fbfc0e1108a8fd17b448a68554199c47d08ffb10d4b9"
	fieldOverflowX := "ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff"

	tests := []struct {
		name string
		key  []byte
	}{
		{name: "nil", key: nil},
		{name: "wrong length", key: hexutil.MustDecode("0x04" + generatorX)},
		{name: "uncompressed without marker", key: hexutil.MustDecode("0x05" + generatorX + generatorY)},
		{name: "hybrid encoding", key: hexutil.MustDecode("0x06" + generatorX + generatorY)},
		{name: "compressed wrong prefix", key: hexutil.MustDecode("0x04" + generatorX)},
		{name: "point not on curve", key: hexutil.MustDecode("0x04" + generatorX + offCurveY)},
		{name: "x outside field", key: hexutil.MustDecode("0x02" + fieldOverflowX)},
		{name: "raw 64 bytes", key: hexutil.MustDecode("0x" + generatorX + generatorY)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := address.DeriveAddress(&address.PublicKeyMaterial{PublicKey: tt.key})
			require.Error(t, err)
			assert.ErrorIs(t, err, walleterr.ErrMalformedKey)
			assert.Equal(t, common.Address{}, addr)
		})
	}

	_, err := address.DeriveAddress(nil)
	assert.ErrorIs(t, err, walleterr.ErrMalformedKey)
}

func TestFromHex(t *testing.T) {
	addr, err := address.FromHex(generatorAddress)
	require.NoError(t, err)
	assert.Equal(t, generatorAddress, addr.Hex())

	addr, err = address.FromHex("0x7e5f4552091a69125d5dfcb7b8c2659029395bdf")
	require.NoError(t, err)
	assert.Equal(t, generatorAddress, addr.Hex())

	_, err = address.FromHex("0x7E5F4552091A69125d5DfCb7b8C2659029395BDF")
	assert.ErrorIs(t, err, walleterr.ErrConfig)

	_, err = address.FromHex("0x1234")
	assert.ErrorIs(t, err, walleterr.ErrConfig)
}
