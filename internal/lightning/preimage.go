package lightning

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// VerifyPreimage checks a settlement proof: the SHA-256 hash of the
// hex-encoded preimage must equal the invoice's payment hash.
func VerifyPreimage(preimageHex, paymentHashHex string) (bool, error) {
	preimage, err := hex.DecodeString(preimageHex)
	if err != nil {
		return false, fmt.Errorf("invalid preimage encoding: %w", err)
	}

	expected, err := hex.DecodeString(paymentHashHex)
	if err != nil {
		return false, fmt.Errorf("invalid payment hash encoding: %w", err)
	}

	sum := sha256.Sum256(preimage)
	if len(expected) != len(sum) {
		return false, nil
	}
	for i := range sum {
		if sum[i] != expected[i] {
			return false, nil
		}
	}
	return true, nil
}
