package domain

import "errors"

var (
	// ErrRevertedRead is returned when an on-chain contract read reverts;
	// callers fall back to default field values
	ErrRevertedRead = errors.New("contract read reverted")

	// ErrMissingEntity is returned when a handler expects a previously
	// created entity and finds none; the event is skipped
	ErrMissingEntity = errors.New("entity not found")

	// ErrMetadataUnavailable is returned when content-addressed metadata
	// cannot be fetched; descriptive fields are left blank
	ErrMetadataUnavailable = errors.New("metadata unavailable")

	// ErrInvalidEvent is returned when an inbound event fails validation
	ErrInvalidEvent = errors.New("invalid event")

	// ErrSubscriptionFailed is returned when subscription to the event
	// stream fails
	ErrSubscriptionFailed = errors.New("subscription failed")
)
