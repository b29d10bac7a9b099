package linter

import (
	"errors"
	"testing"

	"github.com/zmap/zlint/v3"
	"github.com/zmap/zlint/v3/lint"

	"github.com/tnwang/credhub/test"
)

func TestNewRegistryExcludesNames(t *testing.T) {
	reg, err := NewRegistry(nil)
	test.AssertNotError(t, err, "NewRegistry failed")
	names := reg.Names()
	test.Assert(t, len(names) > 0, "expected a non-empty registry")

	skipped := names[0]
	reg, err = NewRegistry([]string{skipped})
	test.AssertNotError(t, err, "NewRegistry with skip failed")
	for _, name := range reg.Names() {
		test.AssertNotEquals(t, name, skipped)
	}
}

func TestProcessResultSet(t *testing.T) {
	err := ProcessResultSet(&zlint.ResultSet{})
	test.AssertNotError(t, err, "empty result set should pass")

	err = ProcessResultSet(&zlint.ResultSet{
		ErrorsPresent: true,
		Results: map[string]*lint.LintResult{
			"e_some_lint": {Status: lint.Error, Details: "it went wrong"},
		},
	})
	test.AssertError(t, err, "result set with an error should fail")
	test.Assert(t, errors.Is(err, ErrLinting), "expected ErrLinting")
	test.AssertContains(t, err.Error(), "e_some_lint")
}

func TestCheckDERRejectsGarbage(t *testing.T) {
	err := CheckDER([]byte("not a certificate"), nil)
	test.AssertError(t, err, "expected parse failure")
}
