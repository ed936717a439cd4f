package domain

import (
	"fmt"
	"strings"
)

// ValidateReleaseContext checks the fields a release publish needs.
func ValidateReleaseContext(r ReleaseContext) error {
	if !r.IsPublished() {
		return fmt.Errorf("release: event %q action %q is not a published release", r.EventName, r.Action)
	}
	if strings.TrimSpace(r.TagName) == "" {
		return fmt.Errorf("release: tag_name is required")
	}
	if strings.ContainsAny(r.TagName, `/\`) {
		return fmt.Errorf("release: tag_name %q must not contain path separators", r.TagName)
	}
	if strings.TrimSpace(r.UploadURL) == "" {
		return fmt.Errorf("release: upload_url is required")
	}
	return nil
}

// ValidateDiffResult checks that a DiffResult is internally consistent.
func ValidateDiffResult(d DiffResult) error {
	if !d.Outcome.Valid() {
		return fmt.Errorf("invalid diff outcome: %q", d.Outcome)
	}
	switch d.Outcome {
	case DiffChanged:
		if d.Text == "" {
			return fmt.Errorf("diff outcome %q requires text", d.Outcome)
		}
		if d.PreviousTag == "" {
			return fmt.Errorf("diff outcome %q requires previous_tag", d.Outcome)
		}
	case DiffIdentical:
		if d.Text != "" {
			return fmt.Errorf("diff outcome %q must not carry text", d.Outcome)
		}
	}
	return nil
}
