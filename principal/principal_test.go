package principal

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"testing"

	cerrors "github.com/tnwang/credhub/errors"
	"github.com/tnwang/credhub/test"
)

func TestNormalizeReversesComponents(t *testing.T) {
	dn, err := Normalize("CN=example.com,O=Acme,C=US")
	test.AssertNotError(t, err, "Normalize failed")
	test.AssertDeepEquals(t, dn.Components(), []string{"C=US", "O=Acme", "CN=example.com"})
	test.AssertEquals(t, dn.String(), "C=US,O=Acme,CN=example.com")
}

func TestNormalizeEscapedComma(t *testing.T) {
	dn, err := Normalize(`CN=Doe\, Jane,O=Acme,C=US`)
	test.AssertNotError(t, err, "Normalize failed")
	// The escaped comma is part of the CN component, escape intact.
	test.AssertDeepEquals(t, dn.Components(), []string{"C=US", "O=Acme", `CN=Doe\, Jane`})
}

func TestNormalizeStrayCommas(t *testing.T) {
	for _, input := range []string{
		",CN=a,O=b",
		"CN=a,O=b,",
		"CN=a,,O=b",
	} {
		dn, err := Normalize(input)
		test.AssertNotError(t, err, "Normalize failed on "+input)
		test.AssertEquals(t, len(dn.Components()), 2)
	}
}

func TestNormalizeEmpty(t *testing.T) {
	dn, err := Normalize("")
	test.AssertNotError(t, err, "Normalize of empty name failed")
	test.Assert(t, dn.Empty(), "expected empty DistinguishedName")

	dn, err = Normalize(",,")
	test.AssertNotError(t, err, "Normalize of comma-only name failed")
	test.Assert(t, dn.Empty(), "expected empty DistinguishedName")
}

func TestReversedIsInvolution(t *testing.T) {
	dn, err := Parse("C=US,O=Acme,CN=example.com")
	test.AssertNotError(t, err, "Parse failed")
	test.AssertDeepEquals(t, dn.Reversed().Reversed().Components(), dn.Components())
	test.AssertEquals(t, dn.Reversed().String(), "CN=example.com,O=Acme,C=US")
}

func TestParseKeepsOrder(t *testing.T) {
	dn, err := Parse("C=US,O=Acme,CN=example.com")
	test.AssertNotError(t, err, "Parse failed")
	test.AssertDeepEquals(t, dn.Components(), []string{"C=US", "O=Acme", "CN=example.com"})
}

func TestParseRejectsMalformedComponents(t *testing.T) {
	_, err := Parse("CN=ok,bogus")
	test.AssertError(t, err, "expected error for component without =")
	test.Assert(t, cerrors.Is(err, cerrors.Malformed), "expected Malformed error")

	_, err = Parse("XX=nope")
	test.AssertError(t, err, "expected error for unknown attribute type")
	test.Assert(t, cerrors.Is(err, cerrors.Malformed), "expected Malformed error")
}

func TestDERUnescapesValues(t *testing.T) {
	dn, err := Normalize(`CN=Doe\, Jane,O=Acme,C=US`)
	test.AssertNotError(t, err, "Normalize failed")
	der, err := dn.DER()
	test.AssertNotError(t, err, "DER failed")

	var rdns pkix.RDNSequence
	_, err = asn1.Unmarshal(der, &rdns)
	test.AssertNotError(t, err, "failed to parse encoded RDNSequence")
	test.AssertEquals(t, len(rdns), 3)

	var name pkix.Name
	name.FillFromRDNSequence(&rdns)
	test.AssertEquals(t, name.CommonName, "Doe, Jane")
	test.AssertEquals(t, name.Organization[0], "Acme")
	test.AssertEquals(t, name.Country[0], "US")
}

func TestDEREmptyName(t *testing.T) {
	der, err := DistinguishedName{}.DER()
	test.AssertNotError(t, err, "DER of empty name failed")
	// An empty RDNSequence is still a well-formed (zero-length) SEQUENCE.
	test.AssertByteEquals(t, der, []byte{0x30, 0x00})
}
