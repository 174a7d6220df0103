package models

// AssetState is the terminal state of one asset
type AssetState string

const (
	StateSuccess AssetState = "success"
	StateFailed  AssetState = "failed"
	// StateSkipped is reserved for a native balance that cannot cover its own fee
	StateSkipped AssetState = "skipped"
)

// AssetResult is the terminal record of one worklist entry.
// Signature is set iff State is StateSuccess.
type AssetResult struct {
	Asset     Asset      `json:"asset" yaml:"asset"`
	Label     string     `json:"label" yaml:"label"`
	State     AssetState `json:"state" yaml:"state"`
	Signature string     `json:"signature,omitempty" yaml:"signature,omitempty"`
	Error     string     `json:"error,omitempty" yaml:"error,omitempty"`
	Attempts  int        `json:"attempts" yaml:"attempts"`
}

// SuccessResult records a confirmed transfer
func SuccessResult(asset Asset, signature string, attempts int) AssetResult {
	return AssetResult{
		Asset:     asset,
		Label:     asset.Label(),
		State:     StateSuccess,
		Signature: signature,
		Attempts:  attempts,
	}
}

// FailedResult records an asset whose attempts were exhausted
func FailedResult(asset Asset, err error, attempts int) AssetResult {
	result := AssetResult{
		Asset:    asset,
		Label:    asset.Label(),
		State:    StateFailed,
		Attempts: attempts,
	}
	if err != nil {
		result.Error = err.Error()
	}
	return result
}

// SkippedResult records a native balance left in place
func SkippedResult(asset Asset, reason string) AssetResult {
	return AssetResult{
		Asset: asset,
		Label: asset.Label(),
		State: StateSkipped,
		Error: reason,
	}
}
