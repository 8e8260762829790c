package domain

const (
	// Gateway constants
	DEFAULT_IPFS_GATEWAY = "https://ipfs.io/ipfs/"

	// DefaultModulo is the denominator for commission percentages until an
	// admin event overrides it (15000/100000 = 15%)
	DefaultModulo = int64(100000)
	// DefaultPrimaryCommission is the platform share of primary sales
	DefaultPrimaryCommission = int64(15000)
	// DefaultSecondaryCommission is the platform royalty on secondary sales
	DefaultSecondaryCommission = int64(2500)
)
