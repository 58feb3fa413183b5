package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/JonMunkholm/BeneficiaryImport/internal/core"
	"github.com/JonMunkholm/BeneficiaryImport/internal/crm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeCSV writes the template header and one row per (name, email).
func writeCSV(t *testing.T, rows ...[2]string) string {
	t.Helper()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	require.NoError(t, w.Write(core.TemplateHeaders))
	for _, r := range rows {
		rec := make([]string, len(core.TemplateHeaders))
		rec[2] = r[0]
		rec[7] = r[1]
		require.NoError(t, w.Write(rec))
	}
	w.Flush()

	path := filepath.Join(t.TempDir(), "beneficiaries.csv")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestValidateCmd(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		path := writeCSV(t, [2]string{"Juan Pérez", "juan@example.com"})

		out, _, err := execute(t, "validate", path)

		require.NoError(t, err)
		assert.Contains(t, out, "1 rows")
		assert.Contains(t, out, "OK")
	})

	t.Run("invalid rows", func(t *testing.T) {
		path := writeCSV(t,
			[2]string{"Juan Pérez", "juan@example.com"},
			[2]string{"Luis Soto", "luis-at-example"},
		)

		out, _, err := execute(t, "validate", path)

		require.ErrorIs(t, err, errValidationFailed)
		assert.Contains(t, out, "row 3:")
	})

	t.Run("json", func(t *testing.T) {
		path := writeCSV(t, [2]string{"Luis Soto", ""})

		out, _, err := execute(t, "validate", "--json", path)

		require.Error(t, err)
		var res validationResult
		require.NoError(t, json.Unmarshal([]byte(out), &res))
		assert.Equal(t, 1, res.Rows)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, 2, res.Errors[0].Row)
	})

	t.Run("unsupported file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "notes.txt")
		require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

		_, _, err := execute(t, "validate", path)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "FILE006")
	})
}

func TestExportInvalidCmd(t *testing.T) {
	path := writeCSV(t,
		[2]string{"Juan Pérez", "juan@example.com"},
		[2]string{"Luis Soto", "luis-at-example"},
	)
	output := filepath.Join(t.TempDir(), "errors.csv")

	out, _, err := execute(t, "export-invalid", path, "-o", output)

	require.NoError(t, err)
	assert.Contains(t, out, "wrote 1 rows")

	got, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(got), "Luis Soto")
	assert.NotContains(t, string(got), "Juan")

	_, _, err = execute(t, "export-invalid", path)
	assert.ErrorContains(t, err, "--output")
}

func TestTemplateCmd(t *testing.T) {
	output := filepath.Join(t.TempDir(), "template.xlsx")

	_, _, err := execute(t, "template", "-o", output)
	require.NoError(t, err)

	// The written template must validate cleanly.
	out, _, err := execute(t, "validate", output)
	require.NoError(t, err)
	assert.Contains(t, out, "OK")
}

func TestImportCmd_DryRun(t *testing.T) {
	t.Setenv("CRM_BACKEND", "http")
	t.Setenv("CRM_ACCESS_TOKEN", "unused")

	path := writeCSV(t,
		[2]string{"Juan Pérez", "juan@example.com"},
		[2]string{"Luis Soto", "luis-at-example"},
		[2]string{"Ana Rivera", "ana@example.com"},
	)

	_, stderr, err := execute(t, "import", path, "--dry-run")
	require.ErrorIs(t, err, core.ErrValidationBlocked)
	assert.Contains(t, stderr, "row 3:")

	out, stderr, err := execute(t, "import", path, "--dry-run", "--strip-invalid")
	require.NoError(t, err)
	assert.Contains(t, stderr, "skipping 1 rows")
	assert.Contains(t, out, "Import complete: 2 succeeded, 0 failed of 2 total records")
}

func TestRunImport_Failures(t *testing.T) {
	store := crm.NewMemoryStore()
	store.FailInserts(core.EntityDeal, errors.New("INVALID_DATA"))
	service := core.NewService(store, core.ServiceConfig{MaxConcurrent: 1, MaxWait: time.Second})

	m := core.Matrix{
		core.TextRow(core.TemplateHeaders...),
	}
	row := make(core.Row, len(core.TemplateHeaders))
	row[2] = core.Text("Juan Pérez")
	row[7] = core.Text("juan@example.com")
	m = append(m, row)

	var out, progress bytes.Buffer
	err := runImport(context.Background(), service, "june.csv", core.Normalize(m),
		importOptions{asJSON: true, quiet: true}, &out, &progress)

	require.Error(t, err)
	var report core.BatchReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Failures, 1)
	assert.Contains(t, report.Failures[0].Message, "failed to create deal")
	assert.Empty(t, progress.String())
}
