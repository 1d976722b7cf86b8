package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darmiel/polsim/internal/audit"
)

const (
	oldPolicyJSON = `{"rules": [
  {"conditions": {"role": "admin"}, "decision": "permitted", "reason": "Admins may do anything."},
  {"conditions": {"department": "eng", "action": "read"}, "decision": "permitted", "reason": "Engineers may read."}
]}`

	newPolicyYAML = `rules:
  - name: no-interns
    conditions:
      role: intern
    decision: denied
    reason: Interns may no longer access production.
  - conditions:
      department: eng
      action: read
    decision: permitted
    reason: Engineers may read.
  - conditions:
      department: finance
      resource: payroll
    decision: permitted
    reason: Finance may access payroll.
`

	accessLogCSV = `user_id,role,department,resource,action
alice,intern,eng,db,read
bob,dev,eng,db,read
carol,analyst,finance,payroll,export
dave,admin,ops,db,drop
erin,dev,eng,db
`
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestSimulateCommand(t *testing.T) {
	dir := t.TempDir()
	oldPath := writeFile(t, dir, "old_policy.json", oldPolicyJSON)
	newPath := writeFile(t, dir, "new_policy.yaml", newPolicyYAML)
	logPath := writeFile(t, dir, "access_logs.csv", accessLogCSV)
	outPath := filepath.Join(dir, "simulation_result.txt")
	historyPath := filepath.Join(dir, "history.jsonl")

	rootCmd.SetArgs([]string{
		"simulate", newPath,
		"--old", oldPath,
		"--log", logPath,
		"--out", outPath,
		"--workers", "2",
		"--history", historyPath,
		"--no-color",
	})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	got, err := os.ReadFile(outPath)
	require.NoError(t, err)

	want := "## 📜 Policy Impact Analysis\n\n" +
		"### If I roll out this new policy, who is likely to get denied access and why?\n" +
		" - User alice:\n" +
		"   - For read on db: Interns may no longer access production.\n" +
		" - User dave:\n" +
		"   - For drop on db: Denied: No matching rule found.\n" +
		"\n### Who is likely to gain access?\n" +
		" - User carol will newly gain access for:\n" +
		"   - export on payroll\n"
	assert.Equal(t, want, string(got))

	records, err := audit.ReadFile(historyPath, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, oldPath, records[0].OldPolicy)
	assert.Equal(t, newPath, records[0].NewPolicy)
	assert.Equal(t, logPath, records[0].LogFile)
	assert.Equal(t, 4, records[0].Evaluated)
	assert.Equal(t, 1, records[0].Unchanged)
	assert.Equal(t, 1, records[0].Skipped)
	assert.Equal(t, 2, records[0].NewlyDenied)
	assert.Equal(t, 1, records[0].NewlyPermitted)
}

func TestSimulateCommand_IdentityOrderAcrossCohorts(t *testing.T) {
	dir := t.TempDir()
	oldPath := writeFile(t, dir, "old.yaml", "- conditions: {resource: wiki}\n  decision: permitted\n  reason: Wiki is open.\n")
	newPath := writeFile(t, dir, "new.yaml", "- conditions: {resource: db}\n  decision: permitted\n  reason: DB is open.\n")
	logPath := writeFile(t, dir, "access_logs.csv", "user_id,role,department,resource,action\n"+
		"u1,dev,eng,db,read\n"+
		"u2,dev,eng,wiki,read\n"+
		"u1,dev,eng,wiki,read\n")
	outPath := filepath.Join(dir, "result.txt")

	recorder := audit.NewMemoryRecorder()
	f.History = recorder
	t.Cleanup(func() { f.History = nil })

	rootCmd.SetArgs([]string{
		"simulate", newPath,
		"--old", oldPath,
		"--log", logPath,
		"--out", outPath,
		"--workers", "1",
		"--no-color",
	})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	got, err := os.ReadFile(outPath)
	require.NoError(t, err)

	// u1 gains access before anyone loses it, so it is listed first among the denied too
	want := "## 📜 Policy Impact Analysis\n\n" +
		"### If I roll out this new policy, who is likely to get denied access and why?\n" +
		" - User u1:\n" +
		"   - For read on wiki: Denied: No matching rule found.\n" +
		" - User u2:\n" +
		"   - For read on wiki: Denied: No matching rule found.\n" +
		"\n### Who is likely to gain access?\n" +
		" - User u1 will newly gain access for:\n" +
		"   - read on db\n"
	assert.Equal(t, want, string(got))

	records := recorder.Recent(10)
	require.Len(t, records, 1)
	assert.Equal(t, 3, records[0].Evaluated)
	assert.Equal(t, 2, records[0].NewlyDenied)
	assert.Equal(t, 1, records[0].NewlyPermitted)
}

func TestPolicyValidateCommand(t *testing.T) {
	dir := t.TempDir()
	valid := writeFile(t, dir, "valid.json", oldPolicyJSON)
	invalid := writeFile(t, dir, "invalid.yaml", "rules:\n  - conditions: {role: dev}\n    decision: permitted\n")

	rootCmd.SetArgs([]string{"policy", "validate", valid})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	rootCmd.SetArgs([]string{"policy", "validate", valid, invalid})
	err := rootCmd.ExecuteContext(context.Background())
	assert.ErrorContains(t, err, "1 of 2 policies are invalid")
}
