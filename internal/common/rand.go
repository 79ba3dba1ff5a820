package common

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// MakeRandNumericCode generates a uniformly random numeric code of the given
// number of digits, zero-padded on the left. Used for emailed one-time codes.
//
// It returns an error if the random number generator fails.
func MakeRandNumericCode(digits int) (string, error) {
	max := big.NewInt(1)
	for i := 0; i < digits; i++ {
		max.Mul(max, big.NewInt(10))
	}

	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%0*d", digits, n), nil
}

// MakeRandAccountNum draws a random user-facing account number with the given
// number of digits. The first digit is never zero, so the number keeps its
// printed length.
func MakeRandAccountNum(digits int) (int64, error) {
	low := int64(1)
	for i := 1; i < digits; i++ {
		low *= 10
	}

	n, err := rand.Int(rand.Reader, big.NewInt(low*9))
	if err != nil {
		return 0, err
	}

	return low + n.Int64(), nil
}
