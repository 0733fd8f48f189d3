package testutil

import (
	"fmt"
	"testing"

	"quizflow-backend/lib/telemetry"
)

type ServiceParams struct {
	Name string
}

// SetupService initializes logging and telemetry for a package's tests.
func SetupService(t testing.TB, params ServiceParams) func() {
	return telemetry.SetupForTesting(fmt.Sprintf("test:%s", params.Name))
}
