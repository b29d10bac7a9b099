// Package identifier defines the tagged alternative-name values that
// may appear in a certificate's subject alternative name extension,
// and the classifier that produces them from raw strings.
package identifier

import (
	"regexp"

	cerrors "github.com/tnwang/credhub/errors"
)

// IdentifierType is a named string type for the supported kinds of
// alternative name.
type IdentifierType string

const (
	// IP identifies an IPv4 address literal, optionally carrying a
	// CIDR-style prefix-length suffix.
	IP = IdentifierType("ip")
	// DNS identifies a DNS name, optionally with a single leading
	// wildcard label.
	DNS = IdentifierType("dns")
)

// AltName is an alternative name that has passed classification. No
// raw, unclassified variant exists: values of this type are only
// produced by Classify or the typed constructors.
type AltName struct {
	Type  IdentifierType `json:"type"`
	Value string         `json:"value"`
}

// DNSName creates an AltName with Type DNS for a given domain name.
func DNSName(domain string) AltName {
	return AltName{Type: DNS, Value: domain}
}

// IPAddress creates an AltName with Type IP for a given address
// literal.
func IPAddress(address string) AltName {
	return AltName{Type: IP, Value: address}
}

// Classification patterns, compiled once at process start.
//
// nearMissIPRegexp exists to catch strings that look like IPv4
// literals but have an out-of-range octet (e.g. "999.1.1.1"). Without
// it, such a typo would classify as a syntactically plausible DNS name
// with numeric labels, and the resulting certificate would assert a
// DNS identity nobody intended. Rejecting outright turns the silent
// semantic error into a validation failure.
var (
	ipRegexp         = regexp.MustCompile(`^(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)(/\d+)?$`)
	nearMissIPRegexp = regexp.MustCompile(`^(\d+\.){3}\d+$`)
	dnsRegexp        = regexp.MustCompile(`^(\*\.)?(([a-zA-Z0-9]|[a-zA-Z0-9][a-zA-Z0-9\-]*[a-zA-Z0-9])\.)*([A-Za-z0-9]|[A-Za-z0-9][A-Za-z0-9\-]*[A-Za-z0-9])$`)
)

// Classify maps each name to exactly one AltName, in input order. The
// first name matching none of the accepted patterns aborts the whole
// operation with a Malformed error carrying the offending name;
// partial results are never returned.
//
// Classification order per name, first match wins: well-formed IPv4
// literal (optional prefix-length suffix, whose value is not
// range-checked here); near-miss dotted-quad, rejected; DNS name with
// at most one wildcard label, which must come first.
func Classify(names []string) ([]AltName, error) {
	altNames := make([]AltName, 0, len(names))
	for _, name := range names {
		switch {
		case ipRegexp.MatchString(name):
			altNames = append(altNames, IPAddress(name))
		case nearMissIPRegexp.MatchString(name):
			return nil, cerrors.MalformedError("invalid alternative name %q", name)
		case dnsRegexp.MatchString(name):
			altNames = append(altNames, DNSName(name))
		default:
			return nil, cerrors.MalformedError("invalid alternative name %q", name)
		}
	}
	return altNames, nil
}
