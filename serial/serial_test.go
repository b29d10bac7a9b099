package serial

import (
	"math/big"
	"sync"
	"testing"

	"github.com/tnwang/credhub/test"
)

func TestNewSourceRejectsZeroPrefix(t *testing.T) {
	_, err := NewSource(0)
	test.AssertError(t, err, "expected error for zero prefix")
}

func TestGenerateCarriesPrefix(t *testing.T) {
	src, err := NewSource(0x1e)
	test.AssertNotError(t, err, "NewSource failed")
	serial, err := src.Generate()
	test.AssertNotError(t, err, "Generate failed")

	serialBytes := serial.Bytes()
	test.AssertEquals(t, len(serialBytes), 18)
	test.AssertEquals(t, serialBytes[0], byte(0x1e))
}

func TestGenerateConcurrentDistinct(t *testing.T) {
	src, err := NewSource(1)
	test.AssertNotError(t, err, "NewSource failed")

	const n = 32
	serials := make([]*big.Int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := src.Generate()
			if err != nil {
				t.Errorf("Generate failed: %s", err)
				return
			}
			serials[i] = s
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, s := range serials {
		test.AssertNotNil(t, s, "missing serial")
		hex := String(s)
		test.Assert(t, !seen[hex], "duplicate serial generated")
		seen[hex] = true
	}
}

func TestStringRoundTrip(t *testing.T) {
	src, err := NewSource(0xff)
	test.AssertNotError(t, err, "NewSource failed")
	serial, err := src.Generate()
	test.AssertNotError(t, err, "Generate failed")

	str := String(serial)
	test.AssertEquals(t, len(str), 36)

	back, err := FromString(str)
	test.AssertNotError(t, err, "FromString failed")
	test.AssertEquals(t, back.Cmp(serial), 0)

	_, err = FromString("not hex")
	test.AssertError(t, err, "expected error for bad serial string")
}
