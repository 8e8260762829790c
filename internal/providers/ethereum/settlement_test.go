package ethereum

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addressTopic(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}

func wethTransferLog(from, to common.Address, value *big.Int) *types.Log {
	return &types.Log{
		Address: defaultWethToken,
		Topics:  []common.Hash{erc20TransferSig, addressTopic(from), addressTopic(to)},
		Data:    common.LeftPadBytes(value.Bytes(), 32),
	}
}

func TestWrappedPaymentValue(t *testing.T) {
	buyer := common.HexToAddress("0xAAA0000000000000000000000000000000000001")
	seller := common.HexToAddress("0xBBB0000000000000000000000000000000000002")
	other := common.HexToAddress("0xCCC0000000000000000000000000000000000003")

	tests := []struct {
		name     string
		receipt  *types.Receipt
		expected *big.Int
	}{
		{
			name: "single wrapped transfer between parties",
			receipt: &types.Receipt{
				Status: types.ReceiptStatusSuccessful,
				Logs: []*types.Log{
					wethTransferLog(buyer, seller, big.NewInt(750000000000000000)),
				},
			},
			expected: big.NewInt(750000000000000000),
		},
		{
			name: "multiple transfers are summed",
			receipt: &types.Receipt{
				Status: types.ReceiptStatusSuccessful,
				Logs: []*types.Log{
					wethTransferLog(buyer, seller, big.NewInt(100)),
					wethTransferLog(buyer, seller, big.NewInt(200)),
				},
			},
			expected: big.NewInt(300),
		},
		{
			name: "transfers between other parties ignored",
			receipt: &types.Receipt{
				Status: types.ReceiptStatusSuccessful,
				Logs: []*types.Log{
					wethTransferLog(buyer, other, big.NewInt(100)),
					wethTransferLog(other, seller, big.NewInt(200)),
				},
			},
			expected: big.NewInt(0),
		},
		{
			name: "non-weth logs ignored",
			receipt: &types.Receipt{
				Status: types.ReceiptStatusSuccessful,
				Logs: []*types.Log{
					{
						Address: other,
						Topics:  []common.Hash{erc20TransferSig, addressTopic(buyer), addressTopic(seller)},
						Data:    common.LeftPadBytes(big.NewInt(100).Bytes(), 32),
					},
				},
			},
			expected: big.NewInt(0),
		},
		{
			name: "zero value transfers ignored",
			receipt: &types.Receipt{
				Status: types.ReceiptStatusSuccessful,
				Logs: []*types.Log{
					wethTransferLog(buyer, seller, big.NewInt(0)),
				},
			},
			expected: big.NewInt(0),
		},
		{
			name: "failed transaction yields zero",
			receipt: &types.Receipt{
				Status: types.ReceiptStatusFailed,
				Logs: []*types.Log{
					wethTransferLog(buyer, seller, big.NewInt(100)),
				},
			},
			expected: big.NewInt(0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scanner := NewSettlementScanner(&fakeEthClient{receipt: tt.receipt}, "")

			value, err := scanner.WrappedPaymentValue(context.Background(),
				"0xdeadbeef", buyer.String(), seller.String())
			require.NoError(t, err)
			assert.Equal(t, 0, tt.expected.Cmp(value))
		})
	}
}

func TestWrappedPaymentValueCustomToken(t *testing.T) {
	buyer := common.HexToAddress("0xAAA0000000000000000000000000000000000001")
	seller := common.HexToAddress("0xBBB0000000000000000000000000000000000002")
	customToken := common.HexToAddress("0xDDD0000000000000000000000000000000000004")

	receipt := &types.Receipt{
		Status: types.ReceiptStatusSuccessful,
		Logs: []*types.Log{
			{
				Address: customToken,
				Topics:  []common.Hash{erc20TransferSig, addressTopic(buyer), addressTopic(seller)},
				Data:    common.LeftPadBytes(big.NewInt(42).Bytes(), 32),
			},
		},
	}

	scanner := NewSettlementScanner(&fakeEthClient{receipt: receipt}, customToken.String())

	value, err := scanner.WrappedPaymentValue(context.Background(),
		"0xdeadbeef", buyer.String(), seller.String())
	require.NoError(t, err)
	assert.Equal(t, int64(42), value.Int64())
}
