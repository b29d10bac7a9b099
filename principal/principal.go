// Package principal converts serialized principal names into the
// ordered distinguished-name form used for certificate construction.
//
// Inbound principal strings follow the usual serialization convention:
// the most specific component appears first ("CN=leaf,O=org,C=US").
// Certificate construction wants the opposite order, so Normalize
// splits on unescaped commas, reverses, and returns a
// DistinguishedName whose DER encoding can be placed directly into a
// certificate's subject or issuer field.
package principal

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"strings"

	cerrors "github.com/tnwang/credhub/errors"
)

// attributeTypeOIDs maps the attribute keywords accepted in principal
// strings to their X.500 attribute type OIDs.
var attributeTypeOIDs = map[string]asn1.ObjectIdentifier{
	"CN":           {2, 5, 4, 3},
	"SERIALNUMBER": {2, 5, 4, 5},
	"C":            {2, 5, 4, 6},
	"L":            {2, 5, 4, 7},
	"ST":           {2, 5, 4, 8},
	"STREET":       {2, 5, 4, 9},
	"O":            {2, 5, 4, 10},
	"OU":           {2, 5, 4, 11},
}

// DistinguishedName is an ordered sequence of relative distinguished
// name components, most-specific-last. The zero value is the empty
// name.
type DistinguishedName struct {
	components []string
}

// Parse builds a DistinguishedName from a serialized name that is
// already in construction order (most specific component last). No
// reordering is performed.
func Parse(serialized string) (DistinguishedName, error) {
	components := splitComponents(serialized)
	if err := checkComponents(components); err != nil {
		return DistinguishedName{}, err
	}
	return DistinguishedName{components: components}, nil
}

// Normalize builds a DistinguishedName from a serialized principal in
// the conventional most-specific-first order, reversing the components
// into construction order. An escaped comma (`\,`) inside a component
// is preserved verbatim and never treated as a separator. A name with
// zero components yields the empty DistinguishedName.
func Normalize(serialized string) (DistinguishedName, error) {
	components := splitComponents(serialized)
	for i, j := 0, len(components)-1; i < j; i, j = i+1, j-1 {
		components[i], components[j] = components[j], components[i]
	}
	if err := checkComponents(components); err != nil {
		return DistinguishedName{}, err
	}
	return DistinguishedName{components: components}, nil
}

// splitComponents splits a serialized name on unescaped commas. The
// two-character sequence `\,` belongs to the current component and is
// kept as-is. Empty components (stray or doubled commas, leading or
// trailing commas) are dropped rather than emitted.
func splitComponents(serialized string) []string {
	var components []string
	var buf strings.Builder
	for i := 0; i < len(serialized); i++ {
		c := serialized[i]
		switch {
		case c == '\\' && i+1 < len(serialized) && serialized[i+1] == ',':
			buf.WriteByte('\\')
			buf.WriteByte(',')
			i++
		case c == ',':
			if buf.Len() > 0 {
				components = append(components, buf.String())
			}
			buf.Reset()
		default:
			buf.WriteByte(c)
		}
	}
	if buf.Len() > 0 {
		components = append(components, buf.String())
	}
	return components
}

func checkComponents(components []string) error {
	for _, c := range components {
		if _, _, err := parseComponent(c); err != nil {
			return err
		}
	}
	return nil
}

// parseComponent splits one "TYPE=value" component into its attribute
// OID and unescaped value.
func parseComponent(component string) (asn1.ObjectIdentifier, string, error) {
	attr, value, found := strings.Cut(component, "=")
	if !found {
		return nil, "", cerrors.MalformedError("name component %q is not an attribute=value pair", component)
	}
	oid, ok := attributeTypeOIDs[strings.ToUpper(strings.TrimSpace(attr))]
	if !ok {
		return nil, "", cerrors.MalformedError("unsupported attribute type %q in name component", attr)
	}
	// The escape is a serialization artifact; the attribute value
	// carries the bare comma.
	return oid, strings.ReplaceAll(value, `\,`, ","), nil
}

// Components returns the ordered component strings, escapes intact.
func (d DistinguishedName) Components() []string {
	out := make([]string, len(d.components))
	copy(out, d.components)
	return out
}

// Empty reports whether the name has no components.
func (d DistinguishedName) Empty() bool {
	return len(d.components) == 0
}

// String re-serializes the name, joining components with commas in
// their current order.
func (d DistinguishedName) String() string {
	return strings.Join(d.components, ",")
}

// Reversed returns a copy of the name with its component order
// reversed. Reversing twice restores the original order.
func (d DistinguishedName) Reversed() DistinguishedName {
	out := make([]string, len(d.components))
	for i, c := range d.components {
		out[len(d.components)-1-i] = c
	}
	return DistinguishedName{components: out}
}

// DER encodes the name as a DER RDNSequence suitable for a
// certificate's RawSubject or RawIssuer field. The empty name encodes
// as an empty sequence.
func (d DistinguishedName) DER() ([]byte, error) {
	rdns := make(pkix.RDNSequence, 0, len(d.components))
	for _, component := range d.components {
		oid, value, err := parseComponent(component)
		if err != nil {
			return nil, err
		}
		rdns = append(rdns, pkix.RelativeDistinguishedNameSET{
			{Type: oid, Value: value},
		})
	}
	der, err := asn1.Marshal(rdns)
	if err != nil {
		return nil, cerrors.InternalServerError("failed to encode distinguished name: %s", err)
	}
	return der, nil
}
