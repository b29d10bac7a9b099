// Package goodkey enforces the policy on public keys that may appear
// as certificate subject keys.
package goodkey

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"math/big"
	"reflect"
	"sync"

	"github.com/titanous/rocacheck"

	cerrors "github.com/tnwang/credhub/errors"
)

// To generate, run: primes 2 752 | tr '\n' ,
var smallPrimeInts = []int64{
	2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37, 41, 43, 47,
	53, 59, 61, 67, 71, 73, 79, 83, 89, 97, 101, 103, 107,
	109, 113, 127, 131, 137, 139, 149, 151, 157, 163, 167,
	173, 179, 181, 191, 193, 197, 199, 211, 223, 227, 229,
	233, 239, 241, 251, 257, 263, 269, 271, 277, 281, 283,
	293, 307, 311, 313, 317, 331, 337, 347, 349, 353, 359,
	367, 373, 379, 383, 389, 397, 401, 409, 419, 421, 431,
	433, 439, 443, 449, 457, 461, 463, 467, 479, 487, 491,
	499, 503, 509, 521, 523, 541, 547, 557, 563, 569, 571,
	577, 587, 593, 599, 601, 607, 613, 617, 619, 631, 641,
	643, 647, 653, 659, 661, 673, 677, 683, 691, 701, 709,
	719, 727, 733, 739, 743, 751,
}

var (
	smallPrimesOnce sync.Once
	smallPrimes     []*big.Int
)

// KeyPolicy determines which types of key may be used as a certificate
// subject key.
type KeyPolicy struct {
	AllowRSA           bool // Whether RSA keys should be allowed.
	AllowECDSANISTP256 bool // Whether ECDSA NISTP256 keys should be allowed.
	AllowECDSANISTP384 bool // Whether ECDSA NISTP384 keys should be allowed.
}

// NewKeyPolicy returns a KeyPolicy that allows RSA, ECDSA256 and
// ECDSA384.
func NewKeyPolicy() KeyPolicy {
	return KeyPolicy{
		AllowRSA:           true,
		AllowECDSANISTP256: true,
		AllowECDSANISTP384: true,
	}
}

// GoodKey returns nil if the key is acceptable as a certificate
// subject key, according to basic strength and algorithm checking.
func (policy *KeyPolicy) GoodKey(key crypto.PublicKey) error {
	switch t := key.(type) {
	case rsa.PublicKey:
		return policy.goodKeyRSA(t)
	case *rsa.PublicKey:
		return policy.goodKeyRSA(*t)
	case ecdsa.PublicKey:
		return policy.goodKeyECDSA(t)
	case *ecdsa.PublicKey:
		return policy.goodKeyECDSA(*t)
	default:
		return cerrors.MalformedError("unknown key type %s", reflect.TypeOf(key))
	}
}

// goodKeyECDSA determines if an ECDSA pubkey meets our requirements.
// The validation routine is adapted from NIST SP800-56A § 5.6.2.3.2,
// assuming a prime field (all allowed curves have one).
func (policy *KeyPolicy) goodKeyECDSA(key ecdsa.PublicKey) error {
	// The validity of the curve is an assumption for all following
	// tests.
	err := policy.goodCurve(key.Curve)
	if err != nil {
		return err
	}

	params := key.Params()

	// Step 1: the key must not be the point at infinity, which is
	// (0,0) for all allowed curves.
	if isPointAtInfinityNISTP(key.X, key.Y) {
		return cerrors.MalformedError("key x, y must not be the point at infinity")
	}

	// Step 2: x and y must be integers in [0, p-1].
	if key.X.Sign() < 0 || key.Y.Sign() < 0 {
		return cerrors.MalformedError("key x, y must not be negative")
	}
	if key.X.Cmp(params.P) >= 0 || key.Y.Cmp(params.P) >= 0 {
		return cerrors.MalformedError("key x, y must not exceed P-1")
	}

	// Step 3: the point must satisfy the curve equation. crypto/elliptic
	// provides this test directly.
	if !key.Curve.IsOnCurve(key.X, key.Y) {
		return cerrors.MalformedError("key point is not on the curve")
	}

	// Step 4: the point must have the correct order, i.e. n*Q == O.
	ox, oy := key.Curve.ScalarMult(key.X, key.Y, params.N.Bytes())
	if !isPointAtInfinityNISTP(ox, oy) {
		return cerrors.MalformedError("public key does not have correct order")
	}

	return nil
}

// isPointAtInfinityNISTP reports whether (x,y) is the point at
// infinity. All allowed curves represent it as (0,0); this function
// must only be used with such curves.
func isPointAtInfinityNISTP(x, y *big.Int) bool {
	return x.Sign() == 0 && y.Sign() == 0
}

// goodCurve determines if an elliptic curve meets our requirements.
func (policy *KeyPolicy) goodCurve(c elliptic.Curve) error {
	params := c.Params()
	switch {
	case policy.AllowECDSANISTP256 && params == elliptic.P256().Params():
		return nil
	case policy.AllowECDSANISTP384 && params == elliptic.P384().Params():
		return nil
	default:
		return cerrors.MalformedError("ECDSA curve %v not allowed", params.Name)
	}
}

// goodKeyRSA determines if an RSA pubkey meets our requirements.
func (policy *KeyPolicy) goodKeyRSA(key rsa.PublicKey) error {
	if !policy.AllowRSA {
		return cerrors.MalformedError("RSA keys are not allowed")
	}
	if rocacheck.IsWeak(&key) {
		return cerrors.MalformedError("key generated by vulnerable Infineon-based hardware")
	}

	// Modulus must be >= 2048 bits and <= 4096 bits.
	modulus := key.N
	modulusBitLen := modulus.BitLen()
	const maxKeySize = 4096
	if modulusBitLen < 2048 {
		return cerrors.MalformedError("key too small: %d", modulusBitLen)
	}
	if modulusBitLen > maxKeySize {
		return cerrors.MalformedError("key too large: %d > %d", modulusBitLen, maxKeySize)
	}
	// Bit lengths that are not a multiple of 8 may cause problems on
	// some client implementations.
	if modulusBitLen%8 != 0 {
		return cerrors.MalformedError("key length wasn't a multiple of 8: %d", modulusBitLen)
	}
	// The exponent must be an odd number equal to 2^16+1 or more.
	// rsa.PublicKey stores E as an int, so no upper bound check is
	// needed.
	if (key.E%2) == 0 || key.E < ((1<<16)+1) {
		return cerrors.MalformedError("key exponent should be odd and >2^16: %d", key.E)
	}
	// The modulus must have no factors smaller than 752.
	if checkSmallPrimes(modulus) {
		return cerrors.MalformedError("key divisible by small prime")
	}

	return nil
}

// checkSmallPrimes returns true iff i is divisible by any of the
// primes in smallPrimes.
//
// Short circuits; execution time is dependent on i. Do not use this on
// secret values.
func checkSmallPrimes(i *big.Int) bool {
	smallPrimesOnce.Do(func() {
		for _, prime := range smallPrimeInts {
			smallPrimes = append(smallPrimes, big.NewInt(prime))
		}
	})

	for _, prime := range smallPrimes {
		var result big.Int
		result.Mod(i, prime)
		if result.Sign() == 0 {
			return true
		}
	}

	return false
}
