package commands

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceronops/jobcal/internal/services"
	"github.com/ceronops/jobcal/test"
)

func TestListInstancesCmd(t *testing.T) {
	suite := test.NewSuite(t)
	defer suite.Cleanup()

	smith := createWeekly(t, suite, "Smith")
	createWeekly(t, suite, "Jones")

	tests := []struct {
		name     string
		args     []string
		expected int
	}{
		{name: "all", args: nil, expected: 26},
		{name: "by template", args: []string{"-t", smith.ID}, expected: 13},
		{name: "date range", args: []string{"--from", "2024-01-01", "--to", "2024-01-14"}, expected: 4},
		{name: "paged", args: []string{"-l", "3", "--offset", "24"}, expected: 2},
		{name: "unsynced", args: []string{"--synced=false"}, expected: 26},
		{name: "synced", args: []string{"--synced"}, expected: 0},
		{name: "completed", args: []string{"-s", "completed"}, expected: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"instances", "list"}, tt.args...)
			out := runJSON[instanceListOutput](t, suite, args...)
			assert.Len(t, out.Instances, tt.expected)
		})
	}

	t.Run("invalid status", func(t *testing.T) {
		_, err := run(t, suite, "instances", "list", "-s", "done")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid instance status")
	})

	t.Run("invalid date", func(t *testing.T) {
		_, err := run(t, suite, "instances", "list", "--from", "01/01/2024")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error fetching instances")
	})
}

func TestInstanceStatusCmds(t *testing.T) {
	suite := test.NewSuite(t)
	defer suite.Cleanup()

	tmpl := createWeekly(t, suite, "Smith")
	rows := runJSON[instanceListOutput](t, suite, "templates", "instances", "-i", tmpl.ID).Instances
	require.Len(t, rows, 13)

	inst := runJSON[instanceOutput](t, suite, "instances", "status", "-i", rows[0].ID, "-s", "in-progress")
	assert.Equal(t, "in-progress", inst.Status)

	got := runJSON[map[string]interface{}](t, suite, "instances", "get", "-i", rows[0].ID)
	assert.Equal(t, "in-progress", got["status"])

	bulk := runJSON[services.BulkStatusResult](t, suite, "instances", "bulk-status",
		"--ids", strings.Join([]string{rows[1].ID, rows[2].ID}, ","), "-s", "completed")
	assert.Equal(t, 2, bulk.Updated)

	done := runJSON[instanceListOutput](t, suite, "instances", "list", "-s", "completed,in-progress")
	assert.Len(t, done.Instances, 3)

	t.Run("invalid status", func(t *testing.T) {
		_, err := run(t, suite, "instances", "status", "-i", rows[3].ID, "-s", "done")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error updating instance status")
	})

	t.Run("missing status flag", func(t *testing.T) {
		_, err := run(t, suite, "instances", "status", "-i", rows[3].ID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `required flag(s) "status" not set`)
	})
}

func TestDeleteInstanceCmds(t *testing.T) {
	suite := test.NewSuite(t)
	defer suite.Cleanup()

	tmpl := createWeekly(t, suite, "Smith")
	rows := runJSON[instanceListOutput](t, suite, "templates", "instances", "-i", tmpl.ID).Instances
	require.Len(t, rows, 13)

	deleted := runJSON[map[string]string](t, suite, "instances", "delete", "-i", rows[0].ID)
	assert.Equal(t, rows[0].ID, deleted["deleted"])

	_, err := run(t, suite, "instances", "get", "-i", rows[0].ID)
	require.Error(t, err)

	bulk := runJSON[services.BulkDeleteResult](t, suite, "instances", "bulk-delete",
		"--ids", rows[1].ID+","+rows[2].ID+",missing")
	assert.Equal(t, 2, bulk.Deleted)
	assert.Equal(t, 1, bulk.Failed)
	assert.Contains(t, bulk.Errors, "missing")

	remaining := runJSON[instanceListOutput](t, suite, "instances", "list", "-t", tmpl.ID)
	assert.Len(t, remaining.Instances, 10)
}
