package reports

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func sampleReport() *Report {
	return &Report{
		Mode:    "collection",
		Title:   "Fee Collection Report",
		Columns: []string{"Student", "Paid"},
		Rows: [][]string{
			{"Asha Verma", "400.00"},
			{"Bilal, Khan", "200.00"},
		},
		Totals: []string{"Total", "600.00"},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleReport()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	require.Equal(t, "Student,Paid", lines[0])
	require.Equal(t, `"Bilal, Khan",200.00`, lines[2])
	require.Equal(t, "Total,600.00", lines[3])
}

func TestWriteCSVRejectsEmptyReport(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, &Report{Mode: "collection", Columns: []string{"Student"}})
	require.ErrorIs(t, err, ErrEmptyExport)
	require.Zero(t, buf.Len(), "no header row may be written for an empty report")
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleReport()))
	require.NotZero(t, buf.Len())

	var empty bytes.Buffer
	err := WriteXLSX(&empty, &Report{Mode: "collection", Columns: []string{"Student"}})
	require.ErrorIs(t, err, ErrEmptyExport)
}

func TestExportFilename(t *testing.T) {
	name := ExportFilename(sampleReport(), "csv")
	require.Equal(t, "collection_"+time.Now().Format("2006-01-02")+".csv", name)
}
