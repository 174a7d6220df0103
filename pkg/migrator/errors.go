package migrator

import "errors"

var (
	// ErrMigrationInProgress is returned by Start while another run is active
	ErrMigrationInProgress = errors.New("migration already in progress")

	// ErrWalletNotConnected is returned when the signer has no key
	ErrWalletNotConnected = errors.New("wallet not connected")

	// ErrInvalidDestination is returned when the destination is missing or not a valid address
	ErrInvalidDestination = errors.New("invalid destination address")

	// ErrSameWallet is returned when the destination equals the source
	ErrSameWallet = errors.New("destination equals source")

	// ErrNothingToMigrate is returned by discovery when no asset has a positive balance
	ErrNothingToMigrate = errors.New("nothing to migrate")

	// ErrCancelled is returned when the caller cancels between two assets
	ErrCancelled = errors.New("migration cancelled")

	errUnknown = errors.New("unknown error")
)

// userMessages holds the prose shown for run-level failures
var userMessages = map[error]string{
	ErrWalletNotConnected: "Wallet not connected. Connect your wallet to proceed.",
	ErrInvalidDestination: "The pre-configured destination wallet address is invalid. Please contact the administrator.",
	ErrSameWallet:         "Destination wallet cannot be the same as the source wallet.",
	ErrNothingToMigrate:   "No transferable assets detected in the source wallet.",
}

// UserMessage returns the human readable message for err
func UserMessage(err error) string {
	for sentinel, message := range userMessages {
		if errors.Is(err, sentinel) {
			return message
		}
	}
	if err == nil || err.Error() == "" {
		return "An unexpected error occurred during the migration setup."
	}
	return err.Error()
}
