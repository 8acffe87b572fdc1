package domain

import (
	"testing"

	"bestiary/testutil"
)

func TestDomainImportsStandardLibraryOnly(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".",
		testutil.AnyForbidden(testutil.InternalImportForbidden, testutil.ThirdPartyImportForbidden),
		"pkg/domain holds shared value types and must stay free of implementation dependencies")
}
