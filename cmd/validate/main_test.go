package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hoursCSV renders consecutive UTC hours starting 2023-03-01 00:00. The
// mutate hook may rewrite the row for hour i; returning "" drops it.
func hoursCSV(n int, mutate func(i int, row string) string) string {
	var b strings.Builder
	b.WriteString("dt_iso,temp,wind_speed,rain_1h\n")
	for i := 0; i < n; i++ {
		row := fmt.Sprintf("2023-03-%02d %02d:00:00,50,%d,", 1+i/24, i%24, 5+i%7)
		if mutate != nil {
			row = mutate(i, row)
		}
		if row != "" {
			b.WriteString(row + "\n")
		}
	}
	return b.String()
}

func writeCSV(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func TestRun_CleanData(t *testing.T) {
	path := writeCSV(t, "clean.csv", hoursCSV(72, nil))

	var out bytes.Buffer
	code := run(&out, []string{path}, "", 4)

	assert.Equal(t, 0, code, out.String())
	assert.Contains(t, out.String(), "All validations passed.")
	assert.Contains(t, out.String(), "72 parsed, 0 skipped, 72 after dedup, 3 local days")
}

func TestRun_IdenticalDuplicatesAcrossFiles(t *testing.T) {
	data := hoursCSV(72, nil)
	a := writeCSV(t, "a.csv", data)
	b := writeCSV(t, "b.csv", data)

	var out bytes.Buffer
	code := run(&out, []string{a, b}, "", 4)

	assert.Equal(t, 0, code, out.String())
	assert.Contains(t, out.String(), "144 parsed, 0 skipped, 72 after dedup")
}

func TestRun_DirtyData(t *testing.T) {
	data := hoursCSV(72, func(i int, row string) string {
		switch {
		case i == 30 || i == 31:
			return "" // interior day loses two hours
		case i == 40:
			return "2023-03-02 16:00:00,50,500,"
		}
		return row
	})
	data += "2023-03-01 05:00:00,51,5,\n" // conflicts with the original 05:00 row
	data += "not a time,50,5,\n"
	path := writeCSV(t, "dirty.csv", data)

	var out bytes.Buffer
	code := run(&out, []string{path}, "", 4)
	text := out.String()

	assert.Equal(t, 1, code)
	assert.Contains(t, text, "Validation FAILED.")
	assert.Contains(t, text, "1 rows with unparseable timestamps")
	assert.Contains(t, text, "conflicting readings")
	assert.Contains(t, text, "2023-03-02: 22 of 24 hours present")
	assert.Contains(t, text, "wind_speed=500")
	assert.NotContains(t, text, "--- Phase 5")
}

func TestRun_MissingFile(t *testing.T) {
	var out bytes.Buffer
	code := run(&out, []string{filepath.Join(t.TempDir(), "absent.csv")}, "", 4)
	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "FATAL")
}

func TestPhase_CapsListedErrors(t *testing.T) {
	p := &phase{name: "test"}
	for i := 0; i < maxListed+5; i++ {
		p.errorf("error %d", i)
	}
	assert.False(t, p.passed())
	assert.Len(t, p.errors, maxListed)
	assert.Equal(t, maxListed+5, p.count)
}
