package commands

import (
	"bytes"
	"encoding/json"
	"io"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/ceronops/jobcal/test"
)

// run executes args against a fresh command tree wired to the suite's API client
func run(t *testing.T, suite *test.Suite, args ...string) (string, error) {
	t.Helper()

	originalClient := apiClient
	apiClient = suite.APIClient
	defer func() { apiClient = originalClient }()

	root := &cobra.Command{Use: "jobcal", SilenceUsage: true, SilenceErrors: true}
	root.AddCommand(newHealthCmd(), newTemplatesCmd(), newInstancesCmd(), newSyncCmd(), newCalendarCmd())

	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(suite.Context())
	return buf.String(), err
}

// runJSON executes args and decodes the printed JSON into T
func runJSON[T any](t *testing.T, suite *test.Suite, args ...string) T {
	t.Helper()
	out, err := run(t, suite, args...)
	require.NoError(t, err, "command %v failed", args)

	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), "Response is not valid JSON: %s", out)
	return v
}

// createWeekly creates a weekly template starting on the suite's first day
func createWeekly(t *testing.T, suite *test.Suite, client string) templateSummary {
	t.Helper()
	return runJSON[templateSummary](t, suite, "templates", "create",
		"--client", client,
		"--type", "residential",
		"--amount", "120",
		"--frequency", "weekly",
		"--start-date", "2024-01-01",
		"--start-time", "09:00",
		"--end-time", "11:00",
	)
}
