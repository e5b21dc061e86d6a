package validate

import (
	"fmt"
	"strings"
)

// Summary renders a human-readable report: per-challenge tallies, then
// critical issues, then warnings. A reviewer should be able to triage a
// failed document from this alone, without re-running anything.
func Summary(r *Result) string {
	var b strings.Builder

	status := "FAILED"
	if r.Passed {
		status = "PASSED"
	}
	fmt.Fprintf(&b, "Validation %s: %d/100\n", status, r.Score)

	for _, ch := range r.Challenges {
		mark := "FAIL"
		if ch.Passed {
			mark = "PASS"
		}
		fmt.Fprintf(&b, "  [%s] %-20s %d/%d\n", mark, ch.Name, ch.PointsEarned, ch.MaxPoints)
	}

	if len(r.CriticalIssues) > 0 {
		b.WriteString("Critical issues:\n")
		for _, issue := range r.CriticalIssues {
			fmt.Fprintf(&b, "  - %s\n", issue)
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("Warnings:\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "  - %s\n", w)
		}
	}

	return b.String()
}
