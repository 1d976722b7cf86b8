package accesslog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darmiel/polsim/internal/core"
)

const sampleLog = `user_id,role,department,resource,action
u1,intern,eng,db,read
u7,analyst,finance,payroll,export
u9,dev,eng,repo,
`

func TestLoad(t *testing.T) {
	entries, err := Load(strings.NewReader(sampleLog), Options{})
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, 1, entries[0].Line)
	assert.Equal(t, "u1", entries[0].Identity)
	assert.Equal(t, "intern", entries[0].Request.Value(core.AttrRole))
	assert.Empty(t, entries[0].Request.Missing())

	assert.Equal(t, "u7", entries[1].Identity)
	assert.Equal(t, "payroll", entries[1].Request.Value(core.AttrResource))

	// an empty trailing field is present, not absent
	action, ok := entries[2].Request.Get(core.AttrAction)
	assert.True(t, ok)
	assert.Equal(t, "", action)
}

func TestLoad_KeepsWhitespaceInValues(t *testing.T) {
	input := "user_id, role ,department,resource,action\nu1, admin,eng,db ,read\n"

	entries, err := Load(strings.NewReader(input), Options{})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// header names are trimmed, values are compared verbatim
	role, ok := entries[0].Request.Get(core.AttrRole)
	assert.True(t, ok)
	assert.Equal(t, " admin", role)
	assert.Equal(t, "db ", entries[0].Request.Value(core.AttrResource))
	assert.Empty(t, entries[0].Request.Missing())
}

func TestLoad_AbsentAttributes(t *testing.T) {
	input := "identity,role,resource\nu1,dev,db\nu2,ops\n"

	entries, err := Load(strings.NewReader(input), Options{})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, []string{"department", "action"}, entries[0].Request.Missing())
	assert.Equal(t, []string{"department", "resource", "action"}, entries[1].Request.Missing())
}

func TestLoad_IdentityColumn(t *testing.T) {
	input := "principal,role,department,resource,action\nalice,dev,eng,db,read\n"

	_, err := Load(strings.NewReader(input), Options{})
	assert.ErrorContains(t, err, "no identity column 'user_id'")

	entries, err := Load(strings.NewReader(input), Options{IdentityColumn: "principal"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "alice", entries[0].Identity)
}

func TestLoad_EmptyInput(t *testing.T) {
	_, err := Load(strings.NewReader(""), Options{})
	assert.ErrorContains(t, err, "missing header row")
}

func TestLoad_Filter(t *testing.T) {
	filter, err := CompileFilter(`department == "finance" || line == 1`)
	require.NoError(t, err)

	entries, err := Load(strings.NewReader(sampleLog), Options{Filter: filter})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "u1", entries[0].Identity)
	assert.Equal(t, "u7", entries[1].Identity)
	// line numbers refer to the unfiltered log
	assert.Equal(t, 2, entries[1].Line)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "access_logs.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleLog), 0o644))

	entries, err := LoadFile(path, Options{})
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.csv"), Options{})
	assert.ErrorContains(t, err, "opening access log")
}
