package identifier

import (
	"testing"

	cerrors "github.com/tnwang/credhub/errors"
	"github.com/tnwang/credhub/test"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name     string
		expected AltName
	}{
		{"192.168.1.1", IPAddress("192.168.1.1")},
		{"10.0.0.1", IPAddress("10.0.0.1")},
		{"255.255.255.255", IPAddress("255.255.255.255")},
		{"192.168.1.1/24", IPAddress("192.168.1.1/24")},
		// The prefix-length value is not range-checked during
		// classification.
		{"192.168.1.1/99", IPAddress("192.168.1.1/99")},
		{"example.com", DNSName("example.com")},
		{"*.example.com", DNSName("*.example.com")},
		{"a.b-c.example", DNSName("a.b-c.example")},
		{"localhost", DNSName("localhost")},
		{"123.example.com", DNSName("123.example.com")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Classify([]string{tc.name})
			test.AssertNotError(t, err, "Classify failed")
			test.AssertEquals(t, len(got), 1)
			test.AssertEquals(t, got[0], tc.expected)
		})
	}
}

func TestClassifyRejects(t *testing.T) {
	cases := []string{
		"999.1.1.1",
		"1.2.3.999",
		"256.1.1.1",
		"exa_mple.com",
		"*.*.example.com",
		"example.*.com",
		"-example.com",
		"example-.com",
		"",
		"has space.com",
	}
	for _, name := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Classify([]string{name})
			test.AssertError(t, err, "expected classification failure")
			test.Assert(t, cerrors.Is(err, cerrors.Malformed), "expected Malformed error")
			if name != "" {
				test.AssertContains(t, err.Error(), name)
			}
		})
	}
}

func TestClassifyPreservesOrder(t *testing.T) {
	got, err := Classify([]string{"example.com", "192.168.1.1", "*.example.org"})
	test.AssertNotError(t, err, "Classify failed")
	test.AssertDeepEquals(t, got, []AltName{
		DNSName("example.com"),
		IPAddress("192.168.1.1"),
		DNSName("*.example.org"),
	})
}

func TestClassifyAbortsWithoutPartialResults(t *testing.T) {
	got, err := Classify([]string{"example.com", "999.1.1.1", "example.org"})
	test.AssertError(t, err, "expected classification failure")
	test.Assert(t, got == nil, "expected no partial results")
}

func TestClassifyEmptyList(t *testing.T) {
	got, err := Classify(nil)
	test.AssertNotError(t, err, "Classify of empty list failed")
	test.AssertEquals(t, len(got), 0)
}
