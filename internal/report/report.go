// Package report renders the markdown check result posted to pull requests
// and the run summary.
package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/schemacheck/schemacheck-go/internal/domain"
)

const (
	title = "# JSON Schema Check Results\n\n"

	validationHeader = "### Validate JSON Schema\n\n"
	diffHeader       = "\n### Create Diff to Latest Release\n\n"
	nextStepsHeader  = "\n### Next Steps\n\n"

	validMsg         = ":white_check_mark: The schema is valid JSON.\n"
	invalidMsg       = ":x: Validation of the schema failed!\n"
	invalidTip       = "Fix the listed keywords and push again; `instanceLocation` points into your schema.\n"
	validationOffMsg = ":grey_question: No information available as validation was not configured. \n"

	noDiffMsg     = ":white_check_mark: No difference to the latest release.\n"
	noPreviousMsg = ":information_source: No diff created, no previous schema version found.\n"
	diffOffMsg    = ":grey_question: No information available as diff creation was not configured. \n"
)

// Input is everything the report is built from. A nil Validation means
// validation was not configured.
type Input struct {
	Validation *domain.ValidationResult
	Diff       domain.DiffResult
}

// Build renders the report. Sections always appear in the order title,
// validation, diff, next steps; Summary stops before next steps.
func Build(in Input) domain.Report {
	var b strings.Builder
	b.WriteString(title)
	b.WriteString(validationHeader)
	writeValidation(&b, in.Validation)
	b.WriteString(diffHeader)
	writeDiff(&b, in.Diff)

	summary := b.String()

	b.WriteString(nextStepsHeader)
	b.WriteString(checkbox(in.Validation == nil || in.Validation.Valid, "Fix validation errors"))
	b.WriteString(checkbox(!in.Diff.Enabled(), "Check backwards compatibility based on diff"))
	b.WriteString("- [ ] React with :thumbsup: to mark the PR as ready")

	return domain.Report{Message: b.String(), Summary: summary}
}

func writeValidation(b *strings.Builder, v *domain.ValidationResult) {
	switch {
	case v == nil:
		b.WriteString(validationOffMsg)
	case v.Valid:
		b.WriteString(validMsg)
	default:
		errs := v.Errors
		if errs == nil {
			errs = []domain.ValidationIssue{}
		}
		data, err := json.Marshal(errs)
		if err != nil {
			data = []byte(fmt.Sprintf("%q", err.Error()))
		}
		b.WriteString(invalidMsg)
		b.WriteString("```json\n")
		b.Write(data)
		b.WriteString("\n```\n")
		b.WriteString(invalidTip)
	}
}

func writeDiff(b *strings.Builder, d domain.DiffResult) {
	switch d.Outcome {
	case domain.DiffChanged:
		if d.Changes != nil && !d.Changes.Empty() {
			writeChanges(b, d)
		}
		b.WriteString("```diff\n")
		b.WriteString(d.Text)
		if !strings.HasSuffix(d.Text, "\n") {
			b.WriteByte('\n')
		}
		b.WriteString("```\n")
	case domain.DiffIdentical:
		b.WriteString(noDiffMsg)
	case domain.DiffNoPrevious:
		b.WriteString(noPreviousMsg)
	default:
		b.WriteString(diffOffMsg)
	}
}

func writeChanges(b *strings.Builder, d domain.DiffResult) {
	c := d.Changes
	fmt.Fprintf(b, "Compared with `%s`: %d added, %d removed, %d changed.\n", d.PreviousTag, c.Added, c.Removed, c.Replaced)
	if len(c.RemovedPaths) > 0 {
		b.WriteString(":warning: Removed paths may break existing consumers:\n")
		for _, p := range c.RemovedPaths {
			fmt.Fprintf(b, "- `%s`\n", p)
		}
	}
	b.WriteByte('\n')
}

func checkbox(done bool, label string) string {
	if done {
		return "- [X] " + label + "\n"
	}
	return "- [ ] " + label + "\n"
}
