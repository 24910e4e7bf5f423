package payment

import "context"

// WalletPayer settles a payment request directly, with no user
// interaction (e.g. an operator-connected wallet node).
type WalletPayer interface {
	Pay(ctx context.Context, paymentRequest string) error
}

// WalletCapability is the result of an explicit capability-detection
// step: either Available with a usable payer, or Unavailable. The
// orchestrator branches on it instead of probing globals.
type WalletCapability struct {
	payer WalletPayer
}

// WalletAvailable wraps a detected payer
func WalletAvailable(p WalletPayer) WalletCapability {
	return WalletCapability{payer: p}
}

// WalletUnavailable reports that no wallet capability was detected
func WalletUnavailable() WalletCapability {
	return WalletCapability{}
}

// Get returns the payer and whether one is available
func (c WalletCapability) Get() (WalletPayer, bool) {
	return c.payer, c.payer != nil
}
