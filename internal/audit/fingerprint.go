package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"time"

	"github.com/darmiel/polsim/internal/core"
)

// Fingerprint hashes the decision-relevant parts of a policy: rule order, conditions,
// decisions and reasons. Names, descriptions and the source location are ignored.
func Fingerprint(policy core.Policy) string {
	h := sha256.New()
	for _, rule := range policy.Rules {
		for _, key := range rule.Conditions.Keys() {
			writeField(h, key)
			writeField(h, rule.Conditions[key])
		}
		writeField(h, "|")
		writeField(h, string(rule.Decision))
		writeField(h, rule.Reason)
		_, _ = h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))[:12]
}

// writeField writes s length-prefixed so adjacent fields cannot run into each other.
func writeField(w io.Writer, s string) {
	_, _ = w.Write([]byte{byte(len(s) >> 24), byte(len(s) >> 16), byte(len(s) >> 8), byte(len(s))})
	_, _ = io.WriteString(w, s)
}

// NewRunRecord summarizes report for the run history.
func NewRunRecord(report *core.ImpactReport, oldPolicy, newPolicy core.Policy) core.RunRecord {
	return core.RunRecord{
		ID:             report.RunID,
		Time:           time.Now().UTC(),
		OldPolicy:      oldPolicy.Source,
		NewPolicy:      newPolicy.Source,
		OldFingerprint: Fingerprint(oldPolicy),
		NewFingerprint: Fingerprint(newPolicy),
		Evaluated:      report.Evaluated,
		Unchanged:      report.Unchanged,
		Skipped:        len(report.Skipped),
		NewlyDenied:    report.Denied.Count(),
		NewlyPermitted: report.Permitted.Count(),
	}
}
