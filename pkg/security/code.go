package security

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

// GenerateNumericCode returns digits uniformly random decimal digits. Leading
// zeros are kept, so "004217" is a valid six digit code.
func GenerateNumericCode(digits int) (string, error) {
	if digits <= 0 || digits > 18 {
		return "", errors.New("numeric code: digits must be between 1 and 18")
	}
	upper := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, upper)
	if err != nil {
		return "", fmt.Errorf("numeric code: %w", err)
	}
	return fmt.Sprintf("%0*d", digits, n.Int64()), nil
}
