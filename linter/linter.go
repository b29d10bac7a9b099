// Package linter runs issued certificates through zlint. Linting is an
// opt-in, post-issuance check: it never sits on the issuance hot path.
package linter

import (
	"fmt"
	"strings"

	zlintx509 "github.com/zmap/zcrypto/x509"
	"github.com/zmap/zlint/v3"
	"github.com/zmap/zlint/v3/lint"
)

var ErrLinting = fmt.Errorf("failed lint(s)")

// CheckDER parses an already-signed certificate and runs it through
// all lints in the registry built by NewRegistry. It returns an error
// wrapping ErrLinting if any lint produces a notice or worse.
func CheckDER(der []byte, skipLints []string) error {
	reg, err := NewRegistry(skipLints)
	if err != nil {
		return err
	}

	cert, err := zlintx509.ParseCertificate(der)
	if err != nil {
		return fmt.Errorf("failed to parse certificate for linting: %w", err)
	}

	lintRes := zlint.LintCertificateEx(cert, reg)
	return ProcessResultSet(lintRes)
}

// NewRegistry returns a zlint Registry with the named lints excluded,
// along with the ETSI and EV lint sources, which do not apply to the
// certificates this repository issues.
func NewRegistry(skipLints []string) (lint.Registry, error) {
	reg, err := lint.GlobalRegistry().Filter(lint.FilterOptions{
		ExcludeNames: skipLints,
		ExcludeSources: []lint.LintSource{
			lint.CABFEVGuidelines,
			lint.EtsiEsi,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create lint registry: %w", err)
	}
	return reg, nil
}

// ProcessResultSet collapses a zlint result set into a single error
// listing every lint that did not pass, or nil if all lints passed.
func ProcessResultSet(lintRes *zlint.ResultSet) error {
	if lintRes.NoticesPresent || lintRes.WarningsPresent || lintRes.ErrorsPresent || lintRes.FatalsPresent {
		var failedLints []string
		for lintName, result := range lintRes.Results {
			if result.Status > lint.Pass {
				failedLints = append(failedLints, fmt.Sprintf("%s (%s)", lintName, result.Details))
			}
		}
		return fmt.Errorf("%w: %s", ErrLinting, strings.Join(failedLints, ", "))
	}
	return nil
}
