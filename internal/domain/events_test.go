package domain

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func baseEvent(kind EventKind) Event {
	return Event{
		Version:         VersionTwo,
		Kind:            kind,
		ContractAddress: "0xDdE2D979e8d39BB8416eAfcFC1758f3CaB2C9C72",
		BlockNumber:     10000000,
		BlockTimestamp:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		TxHash:          "0xdeadbeef",
		LogIndex:        3,
	}
}

func TestEvent_Valid(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Event)
		expected bool
	}{
		{
			name: "valid transfer",
			mutate: func(e *Event) {
				e.Kind = KindTransfer
				e.Transfer = &TransferParams{From: ZeroAddress, To: "0x1111111111111111111111111111111111111111", TokenNumber: "100001"}
			},
			expected: true,
		},
		{
			name: "transfer without params",
			mutate: func(e *Event) {
				e.Kind = KindTransfer
			},
			expected: false,
		},
		{
			name: "bid must target edition xor token",
			mutate: func(e *Event) {
				e.Kind = KindBidPlaced
				e.Bid = &BidParams{EditionNumber: "100", TokenNumber: "101", Bidder: "0x1111111111111111111111111111111111111111", AmountWei: "1"}
			},
			expected: false,
		},
		{
			name: "edition bid",
			mutate: func(e *Event) {
				e.Kind = KindBidPlaced
				e.Bid = &BidParams{EditionNumber: "100", Bidder: "0x1111111111111111111111111111111111111111", AmountWei: "1"}
			},
			expected: true,
		},
		{
			name: "collective requires v4",
			mutate: func(e *Event) {
				e.Kind = KindCollectiveCreated
				e.Collective = &CollectiveParams{Handler: "0x2222222222222222222222222222222222222222"}
			},
			expected: false,
		},
		{
			name: "v4 collective",
			mutate: func(e *Event) {
				e.Version = VersionFour
				e.Kind = KindCollectiveCreated
				e.Collective = &CollectiveParams{Handler: "0x2222222222222222222222222222222222222222"}
			},
			expected: true,
		},
		{
			name: "unknown kind",
			mutate: func(e *Event) {
				e.Kind = EventKind("bogus")
			},
			expected: false,
		},
		{
			name: "invalid version",
			mutate: func(e *Event) {
				e.Version = ProtocolVersion(9)
				e.Kind = KindTransfer
				e.Transfer = &TransferParams{To: "0x1", TokenNumber: "1"}
			},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := baseEvent(KindTransfer)
			tt.mutate(&ev)
			assert.Equal(t, tt.expected, ev.Valid())
		})
	}
}

func TestEvent_TxValue(t *testing.T) {
	ev := baseEvent(KindTransfer)
	assert.Equal(t, big.NewInt(0), ev.TxValue())

	ev.TxValueWei = "500000000000000000"
	assert.Equal(t, "500000000000000000", ev.TxValue().String())

	ev.TxValueWei = "not-a-number"
	assert.Equal(t, big.NewInt(0), ev.TxValue())
}
