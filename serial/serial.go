// Package serial provides the serial-number source consumed by
// certificate issuance.
package serial

import (
	"crypto/rand"
	"fmt"
	"math/big"

	cerrors "github.com/tnwang/credhub/errors"
)

// Source yields unique, unpredictable certificate serial numbers. A
// Source must be safe for use by multiple concurrent issuance calls:
// two concurrent Generate calls must never return equal values.
type Source interface {
	Generate() (*big.Int, error)
}

// randSource draws serials from crypto/rand. We want 136 bits of
// random number, plus an 8-bit instance prefix so serials issued by
// distinct instances can never collide.
type randSource struct {
	prefix byte
}

// NewSource returns a Source that prepends the given instance prefix
// to 136 random bits. The prefix must be non-zero so that encoded
// serials keep a fixed length.
func NewSource(prefix byte) (Source, error) {
	if prefix == 0 {
		return nil, fmt.Errorf("serial prefix must be non-zero")
	}
	return randSource{prefix: prefix}, nil
}

func (s randSource) Generate() (*big.Int, error) {
	const randBits = 136
	serialBytes := make([]byte, randBits/8+1)
	serialBytes[0] = s.prefix
	_, err := rand.Read(serialBytes[1:])
	if err != nil {
		return nil, cerrors.InternalServerError("failed to generate serial: %s", err)
	}
	return big.NewInt(0).SetBytes(serialBytes), nil
}

// String converts a serial number (big.Int) to a fixed-width hex
// string for display and logging.
func String(serial *big.Int) string {
	return fmt.Sprintf("%036x", serial)
}

// FromString converts a hex string into a serial number (big.Int).
func FromString(serial string) (*big.Int, error) {
	var serialNum big.Int
	_, ok := serialNum.SetString(serial, 16)
	if !ok {
		return nil, fmt.Errorf("invalid serial number %q", serial)
	}
	return &serialNum, nil
}
