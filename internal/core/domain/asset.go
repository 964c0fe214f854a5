package domain

// AssetID identifies a custodied asset. The reserved value NativeAssetID
// denotes the chain-native currency, which is never registered as a token.
type AssetID string

// NativeAssetID is the sentinel for the chain-native currency.
const NativeAssetID AssetID = "native"

// IsNative reports whether the asset is the chain-native currency.
func (a AssetID) IsNative() bool { return a == NativeAssetID }

// IsZero reports whether the identifier is the null identifier.
func (a AssetID) IsZero() bool {
	return a == "" || a == "0x0000000000000000000000000000000000000000"
}

// AssetConfig is the registry record for a configured asset. Records are
// upserted by administrators and never deleted, only toggled.
type AssetConfig struct {
	ID        AssetID `json:"id"`
	Supported bool    `json:"supported"`
	Decimals  uint8   `json:"decimals"` // native precision declared by the asset
}
