package ethereum

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openprint/marketplace-indexer/internal/domain"
	"github.com/openprint/marketplace-indexer/internal/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: true}); err != nil {
		panic(err)
	}
	m.Run()
}

// fakeEthClient stubs adapter.EthClient for contract call and receipt tests
type fakeEthClient struct {
	callResult []byte
	callErr    error
	receipt    *types.Receipt
	receiptErr error
}

func (f *fakeEthClient) CallContract(_ context.Context, _ goethereum.CallMsg, _ *big.Int) ([]byte, error) {
	return f.callResult, f.callErr
}

func (f *fakeEthClient) TransactionReceipt(_ context.Context, _ common.Hash) (*types.Receipt, error) {
	return f.receipt, f.receiptErr
}

func (f *fakeEthClient) HeaderByNumber(_ context.Context, _ *big.Int) (*types.Header, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeEthClient) Close() {}

func packEditionDetails(t *testing.T, artist common.Address, price, commission, available *big.Int, uri string, active bool) []byte {
	t.Helper()
	detailsABI, err := abi.JSON(strings.NewReader(`[{"constant":true,"inputs":[{"name":"editionNumber","type":"uint256"}],"name":"detailsOfEdition","outputs":[{"name":"artistAccount","type":"address"},{"name":"priceInWei","type":"uint256"},{"name":"artistCommission","type":"uint256"},{"name":"totalAvailable","type":"uint256"},{"name":"tokenURI","type":"string"},{"name":"active","type":"bool"}],"payable":false,"stateMutability":"view","type":"function"}]`))
	require.NoError(t, err)

	out, err := detailsABI.Methods["detailsOfEdition"].Outputs.Pack(artist, price, commission, available, uri, active)
	require.NoError(t, err)
	return out
}

func TestEditionDetails(t *testing.T) {
	artist := common.HexToAddress("0x457ee5f723C7606c12a7264b52e285906F91eEA6")
	price := big.NewInt(500000000000000000)
	commission := big.NewInt(85000)

	t.Run("successful read", func(t *testing.T) {
		client := &fakeEthClient{
			callResult: packEditionDetails(t, artist, price, commission, big.NewInt(25), "ipfs://QmEdition", true),
		}
		reader := NewEditionReader(client)

		details, err := reader.EditionDetails(context.Background(), "0x1111111111111111111111111111111111111111", "12000")
		require.NoError(t, err)
		assert.Equal(t, artist.String(), details.ArtistAccount)
		assert.Equal(t, price, details.PriceInWei)
		assert.Equal(t, commission, details.ArtistCommission)
		assert.Equal(t, uint64(25), details.TotalAvailable)
		assert.Equal(t, "ipfs://QmEdition", details.TokenURI)
		assert.True(t, details.Active)
	})

	t.Run("reverted read", func(t *testing.T) {
		client := &fakeEthClient{callErr: errors.New("execution reverted")}
		reader := NewEditionReader(client)

		details, err := reader.EditionDetails(context.Background(), "0x1111111111111111111111111111111111111111", "12000")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrRevertedRead))
		assert.Nil(t, details)
	})

	t.Run("transport error", func(t *testing.T) {
		client := &fakeEthClient{callErr: errors.New("connection refused")}
		reader := NewEditionReader(client)

		_, err := reader.EditionDetails(context.Background(), "0x1111111111111111111111111111111111111111", "12000")
		require.Error(t, err)
		assert.False(t, errors.Is(err, domain.ErrRevertedRead))
	})

	t.Run("invalid edition number", func(t *testing.T) {
		reader := NewEditionReader(&fakeEthClient{})

		_, err := reader.EditionDetails(context.Background(), "0x1111111111111111111111111111111111111111", "not-a-number")
		require.Error(t, err)
	})
}

func TestTokenURI(t *testing.T) {
	tokenURIABI, err := abi.JSON(strings.NewReader(`[{"constant":true,"inputs":[{"name":"tokenId","type":"uint256"}],"name":"tokenURI","outputs":[{"name":"","type":"string"}],"payable":false,"stateMutability":"view","type":"function"}]`))
	require.NoError(t, err)

	out, err := tokenURIABI.Methods["tokenURI"].Outputs.Pack("ipfs://QmToken")
	require.NoError(t, err)

	t.Run("successful read", func(t *testing.T) {
		reader := NewEditionReader(&fakeEthClient{callResult: out})

		uri, err := reader.TokenURI(context.Background(), "0x1111111111111111111111111111111111111111", "12001")
		require.NoError(t, err)
		assert.Equal(t, "ipfs://QmToken", uri)
	})

	t.Run("reverted read", func(t *testing.T) {
		reader := NewEditionReader(&fakeEthClient{callErr: errors.New("execution reverted: nonexistent token")})

		_, err := reader.TokenURI(context.Background(), "0x1111111111111111111111111111111111111111", "12001")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrRevertedRead))
	})
}
