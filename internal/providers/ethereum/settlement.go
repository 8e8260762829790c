package ethereum

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/openprint/marketplace-indexer/internal/adapter"
	"github.com/openprint/marketplace-indexer/internal/logger"
)

// erc20TransferSig is the topic hash of Transfer(address,address,uint256)
var erc20TransferSig = common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")

// defaultWethToken is mainnet WETH
var defaultWethToken = common.HexToAddress("0xC02aaa39b223Fe8D0a0e5C4F27eAD9083C756Cc2")

// SettlementScanner recovers the value of sales settled in a wrapped asset
// instead of native transaction value
type SettlementScanner interface {
	// WrappedPaymentValue scans the receipt of txHash for ERC-20 transfers of
	// the wrapped token flowing from the buyer to the seller and returns their
	// sum. A zero result means no wrapped settlement was found.
	WrappedPaymentValue(ctx context.Context, txHash string, buyer string, seller string) (*big.Int, error)
}

type settlementScanner struct {
	client    adapter.EthClient
	wethToken common.Address
}

// NewSettlementScanner creates a SettlementScanner. An empty wethToken falls
// back to mainnet WETH.
func NewSettlementScanner(client adapter.EthClient, wethToken string) SettlementScanner {
	token := defaultWethToken
	if wethToken != "" {
		token = common.HexToAddress(wethToken)
	}
	return &settlementScanner{client: client, wethToken: token}
}

// WrappedPaymentValue scans the receipt logs of a transaction for wrapped
// token transfers between the transacting parties
func (s *settlementScanner) WrappedPaymentValue(ctx context.Context, txHash string, buyer string, seller string) (*big.Int, error) {
	receipt, err := s.client.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch receipt for %s: %w", txHash, err)
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		logger.WarnCtx(ctx, "scanning receipt of unsuccessful transaction",
			zap.String("tx_hash", txHash))
		return big.NewInt(0), nil
	}

	buyerAddr := common.HexToAddress(buyer)
	sellerAddr := common.HexToAddress(seller)

	total := big.NewInt(0)
	for _, lg := range receipt.Logs {
		if lg.Address != s.wethToken || len(lg.Topics) < 3 || lg.Topics[0] != erc20TransferSig {
			continue
		}

		from := common.HexToAddress(lg.Topics[1].Hex())
		to := common.HexToAddress(lg.Topics[2].Hex())
		value := new(big.Int).SetBytes(lg.Data)
		if value.Sign() <= 0 {
			continue
		}

		if from == buyerAddr && to == sellerAddr {
			total.Add(total, value)
		}
	}

	return total, nil
}
