package engine

import (
	"testing"

	"bestiary/testutil"
)

func TestEngineDoesNotImportPersistenceOrTransport(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".",
		testutil.PrefixForbidden(
			"bestiary/internal/infra",
			"bestiary/internal/archive",
			"bestiary/internal/blob",
			"bestiary/internal/transcript",
			"bestiary/internal/classify",
			"bestiary/internal/config",
			"github.com/spf13/cobra",
			"github.com/prometheus/client_golang",
		),
		"inference runs in memory; side effects belong to the classify service")
}
