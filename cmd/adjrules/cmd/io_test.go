package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/solatis/adjrules/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParseEdit(t *testing.T) {
	e, err := parseEdit("2:Amount=7.5")
	require.NoError(t, err)
	assert.Equal(t, edit{row: 2, label: "Amount", value: "7.5"}, e)

	e, err = parseEdit("0: Rule Name =a=b")
	require.NoError(t, err)
	assert.Equal(t, "Rule Name", e.label)
	assert.Equal(t, "a=b", e.value)

	for _, bad := range []string{"Amount=1", "x:Amount=1", "1:Amount"} {
		_, err := parseEdit(bad)
		assert.Error(t, err, bad)
	}
}

func TestReadRecords(t *testing.T) {
	jsonPath := writeFile(t, "records.json", `[{"Rule ID": "5", "Amount": "7.5"}]`)
	records, err := readRecords(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, []types.FlatRecord{{types.LabelRuleID: "5", types.LabelAmount: "7.5"}}, records)

	csvPath := writeFile(t, "records.CSV", "Rule ID,Amount\n5,7.5\n6,\n")
	records, err = readRecords(csvPath)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "5", records[0][types.LabelRuleID])
	_, ok := records[1][types.LabelAmount]
	assert.False(t, ok)

	_, err = readRecords(writeFile(t, "bad.json", `{"Rule ID": "5"}`))
	assert.Error(t, err)
	_, err = readRecords(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestWriteRecords(t *testing.T) {
	records := []types.FlatRecord{{types.LabelRuleID: "5", types.LabelRuleName: "Night Shift"}}

	var buf bytes.Buffer
	require.NoError(t, writeRecords(&buf, records, formatTable))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Rule ID"))
	assert.Contains(t, lines[1], "Night Shift")

	buf.Reset()
	require.NoError(t, writeRecords(&buf, records, formatJSON))
	assert.Contains(t, buf.String(), `"Rule Name": "Night Shift"`)

	assert.Error(t, writeRecords(&buf, records, "xml"))
}
