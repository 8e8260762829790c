package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/openprint/marketplace-indexer/internal/adapter"
	"github.com/openprint/marketplace-indexer/internal/domain"
)

// EditionDetails holds the authoritative on-chain state of an edition at the
// moment it is first observed
type EditionDetails struct {
	ArtistAccount    string
	PriceInWei       *big.Int
	ArtistCommission *big.Int
	TotalAvailable   uint64
	TokenURI         string
	Active           bool
}

// EditionReader performs synchronous point-in-time queries against the
// marketplace contracts
type EditionReader interface {
	// EditionDetails fetches the on-chain details of an edition. A reverted
	// call returns domain.ErrRevertedRead.
	EditionDetails(ctx context.Context, contractAddress string, editionNumber string) (*EditionDetails, error)

	// TokenURI fetches the tokenURI of a minted token. A reverted call
	// returns domain.ErrRevertedRead.
	TokenURI(ctx context.Context, contractAddress string, tokenNumber string) (string, error)

	// Close closes the underlying connection
	Close()
}

type editionReader struct {
	client adapter.EthClient
}

// NewEditionReader creates an EditionReader backed by the given client
func NewEditionReader(client adapter.EthClient) EditionReader {
	return &editionReader{client: client}
}

// EditionDetails fetches the on-chain details of an edition
func (r *editionReader) EditionDetails(ctx context.Context, contractAddress string, editionNumber string) (*EditionDetails, error) {
	// detailsOfEdition(uint256) returns (address, uint256, uint256, uint256, string, bool)
	detailsABI, err := abi.JSON(strings.NewReader(`[{"constant":true,"inputs":[{"name":"editionNumber","type":"uint256"}],"name":"detailsOfEdition","outputs":[{"name":"artistAccount","type":"address"},{"name":"priceInWei","type":"uint256"},{"name":"artistCommission","type":"uint256"},{"name":"totalAvailable","type":"uint256"},{"name":"tokenURI","type":"string"},{"name":"active","type":"bool"}],"payable":false,"stateMutability":"view","type":"function"}]`))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI: %w", err)
	}

	editionID, ok := new(big.Int).SetString(editionNumber, 10)
	if !ok {
		return nil, fmt.Errorf("invalid edition number: %s", editionNumber)
	}

	data, err := detailsABI.Pack("detailsOfEdition", editionID)
	if err != nil {
		return nil, fmt.Errorf("failed to pack data: %w", err)
	}

	contractAddr := common.HexToAddress(contractAddress)
	result, err := r.client.CallContract(ctx, goethereum.CallMsg{
		To:   &contractAddr,
		Data: data,
	}, nil)
	if err != nil {
		if isRevert(err) {
			return nil, fmt.Errorf("%w: detailsOfEdition(%s): %s", domain.ErrRevertedRead, editionNumber, err)
		}
		return nil, fmt.Errorf("failed to call contract: %w", err)
	}

	values, err := detailsABI.Unpack("detailsOfEdition", result)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack result: %w", err)
	}
	if len(values) != 6 {
		return nil, fmt.Errorf("unexpected result arity %d from detailsOfEdition", len(values))
	}

	artist, ok := values[0].(common.Address)
	if !ok {
		return nil, fmt.Errorf("unexpected artist account type %T", values[0])
	}
	priceInWei, ok := values[1].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected price type %T", values[1])
	}
	commission, ok := values[2].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected commission type %T", values[2])
	}
	totalAvailable, ok := values[3].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected total available type %T", values[3])
	}
	tokenURI, ok := values[4].(string)
	if !ok {
		return nil, fmt.Errorf("unexpected token URI type %T", values[4])
	}
	active, ok := values[5].(bool)
	if !ok {
		return nil, fmt.Errorf("unexpected active flag type %T", values[5])
	}

	return &EditionDetails{
		ArtistAccount:    artist.String(),
		PriceInWei:       priceInWei,
		ArtistCommission: commission,
		TotalAvailable:   totalAvailable.Uint64(),
		TokenURI:         tokenURI,
		Active:           active,
	}, nil
}

// TokenURI fetches the tokenURI of a minted token
func (r *editionReader) TokenURI(ctx context.Context, contractAddress string, tokenNumber string) (string, error) {
	// ERC721 tokenURI function signature: tokenURI(uint256) returns (string)
	tokenURIABI, err := abi.JSON(strings.NewReader(`[{"constant":true,"inputs":[{"name":"tokenId","type":"uint256"}],"name":"tokenURI","outputs":[{"name":"","type":"string"}],"payable":false,"stateMutability":"view","type":"function"}]`))
	if err != nil {
		return "", fmt.Errorf("failed to parse ABI: %w", err)
	}

	tokenID, ok := new(big.Int).SetString(tokenNumber, 10)
	if !ok {
		return "", fmt.Errorf("invalid token number: %s", tokenNumber)
	}

	data, err := tokenURIABI.Pack("tokenURI", tokenID)
	if err != nil {
		return "", fmt.Errorf("failed to pack data: %w", err)
	}

	contractAddr := common.HexToAddress(contractAddress)
	result, err := r.client.CallContract(ctx, goethereum.CallMsg{
		To:   &contractAddr,
		Data: data,
	}, nil)
	if err != nil {
		if isRevert(err) {
			return "", fmt.Errorf("%w: tokenURI(%s): %s", domain.ErrRevertedRead, tokenNumber, err)
		}
		return "", fmt.Errorf("failed to call contract: %w", err)
	}

	var uri string
	if err := tokenURIABI.UnpackIntoInterface(&uri, "tokenURI", result); err != nil {
		return "", fmt.Errorf("failed to unpack result: %w", err)
	}

	return uri, nil
}

func (r *editionReader) Close() {
	r.client.Close()
}

// isRevert reports whether an eth_call failure is a contract revert as
// opposed to a transport error
func isRevert(err error) bool {
	return strings.Contains(err.Error(), "execution reverted") ||
		strings.Contains(err.Error(), "revert")
}
