// Package differ compares two schema documents.
package differ

import (
	"fmt"
	"sort"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/wI2L/jsondiff"

	"github.com/schemacheck/schemacheck-go/internal/domain"
	"github.com/schemacheck/schemacheck-go/internal/schema"
)

// DefaultContext is the number of unchanged lines shown around each hunk.
const DefaultContext = 3

// Unified renders line diffs of the canonical JSON encoding of two documents.
// Keys are sorted before rendering, so key order never shows up as a change.
type Unified struct {
	Context  int
	FromFile string
	ToFile   string
}

// NewUnified returns a Unified differ with default settings.
func NewUnified() *Unified {
	return &Unified{Context: DefaultContext, FromFile: "previous", ToFile: "current"}
}

// Diff returns a unified diff from prev to cur, or "" when both documents
// are structurally equal.
func (u *Unified) Diff(prev, cur any) (string, error) {
	a, err := schema.Encode(prev)
	if err != nil {
		return "", fmt.Errorf("differ: previous: %w", err)
	}
	b, err := schema.Encode(cur)
	if err != nil {
		return "", fmt.Errorf("differ: current: %w", err)
	}
	if string(a) == string(b) {
		return "", nil
	}

	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(a) + "\n"),
		B:        difflib.SplitLines(string(b) + "\n"),
		FromFile: u.FromFile,
		ToFile:   u.ToFile,
		Context:  u.Context,
	})
	if err != nil {
		return "", fmt.Errorf("differ: render: %w", err)
	}
	return text, nil
}

// Summarize counts the structural operations that turn prev into cur.
// Paths removed from prev are listed since they are the likeliest to break
// existing consumers.
func (u *Unified) Summarize(prev, cur any) (*domain.ChangeSummary, error) {
	patch, err := jsondiff.Compare(prev, cur)
	if err != nil {
		return nil, fmt.Errorf("differ: compare: %w", err)
	}

	sum := &domain.ChangeSummary{}
	for _, op := range patch {
		switch op.Type {
		case jsondiff.OperationAdd:
			sum.Added++
		case jsondiff.OperationRemove:
			sum.Removed++
			sum.RemovedPaths = append(sum.RemovedPaths, op.Path)
		case jsondiff.OperationReplace:
			sum.Replaced++
		}
	}
	sort.Strings(sum.RemovedPaths)
	return sum, nil
}
