package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hoteldash/internal/core"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	computePayload, computeRows, computeMetrics = "", "", ""
	computeMetric, computeMode, computeLimit = core.MetricRevenue, string(core.RankTop), 5
	computeFormat = "json"
	ingestFile, ingestDimension, ingestStrict = "", "", false
	dbPath = ""

	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const roomRows = `date,dimension,category,revenue,rooms_sold,previous_revenue,previous_rooms_sold
2025-01-01,room_type,Suite,900,3,600,2
2025-01-01,room_type,Double,500,5,500,5
2025-01-01,room_type,Single,200,4,400,8
`

func TestRootHelp(t *testing.T) {
	out, err := execute(t, "--help")
	if err != nil {
		t.Fatalf("execute root help: %v", err)
	}
	if !strings.Contains(out, "compute") || !strings.Contains(out, "migrate") {
		t.Fatalf("help output misses commands: %q", out)
	}
}

func TestComputeDistributionFromRows(t *testing.T) {
	rows := writeFile(t, "rows.csv", roomRows)

	out, err := execute(t, "compute", "distribution", "--rows", rows, "--dimension", "room_type", "--limit", "1")
	if err != nil {
		t.Fatalf("compute: %v\n%s", err, out)
	}

	var records []core.BucketedRecord
	if err := json.Unmarshal([]byte(out), &records); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Name != "Suite" || records[0].Value != 900 {
		t.Errorf("first record = %+v", records[0])
	}
	if !records[1].Others || records[1].Name != core.OthersName || records[1].Value != 700 {
		t.Errorf("others record = %+v", records[1])
	}
}

func TestComputeTableText(t *testing.T) {
	rows := writeFile(t, "rows.csv", roomRows)

	out, err := execute(t, "compute", "table", "--rows", rows, "--dimension", "room_type", "--metrics", "revenue", "--format", "text")
	if err != nil {
		t.Fatalf("compute: %v\n%s", err, out)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want header and 3 rows:\n%s", len(lines), out)
	}
	if got := strings.Fields(lines[0]); strings.Join(got, " ") != "category revenue revenuePrevious revenueChange" {
		t.Fatalf("header = %q", lines[0])
	}
	var suite []string
	for _, line := range lines[1:] {
		if f := strings.Fields(line); len(f) > 0 && f[0] == "Suite" {
			suite = f
		}
	}
	if len(suite) != 4 || suite[1] != "900" || suite[2] != "600" {
		t.Fatalf("suite row = %q", suite)
	}

	if _, err := execute(t, "compute", "ranking", "--rows", rows, "--dimension", "room_type", "--format", "text"); err == nil {
		t.Fatal("text format should be rejected for the ranking view")
	}
	if _, err := execute(t, "compute", "table", "--rows", rows, "--dimension", "room_type", "--format", "yaml"); err == nil {
		t.Fatal("unknown format should be rejected")
	}
}

func TestComputeRequiresOneInput(t *testing.T) {
	if _, err := execute(t, "compute", "table"); err == nil {
		t.Fatal("expected an error without --payload or --rows")
	}
	if _, err := execute(t, "compute", "pie", "--rows", "x.csv"); err == nil {
		t.Fatal("expected an error for an unknown view")
	}
}

func TestComputeUnknownMetric(t *testing.T) {
	rows := writeFile(t, "rows.csv", roomRows)
	_, err := execute(t, "compute", "ranking", "--rows", rows, "--dimension", "room_type", "--metric", "occupancy")
	if err == nil || !strings.Contains(err.Error(), "occupancy") {
		t.Fatalf("err = %v", err)
	}
}

func TestIngestAndMigrate(t *testing.T) {
	db := filepath.Join(t.TempDir(), "hoteldash.db")
	rows := writeFile(t, "rows.csv", roomRows+"2025-01-02,room_type,Suite,abc,1,0,0\n")

	if _, err := execute(t, "--db", db, "ingest", "--file", rows, "--strict"); err == nil {
		t.Fatal("strict ingest should reject a file with invalid rows")
	}

	out, err := execute(t, "--db", db, "ingest", "--file", rows)
	if err != nil {
		t.Fatalf("ingest: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Stored 3 rows (1 skipped)") {
		t.Fatalf("ingest output = %q", out)
	}

	out, err = execute(t, "--db", db, "migrate", "version")
	if err != nil {
		t.Fatalf("migrate version: %v", err)
	}
	if !strings.Contains(out, "Schema version: 1 (dirty: false)") {
		t.Fatalf("version output = %q", out)
	}
}
