// Package domain defines the run-scoped types shared by the schema check steps.
package domain

import "strings"

// ValidationIssue is one error produced while validating a schema against its
// meta-schema. Field names follow the JSON Schema "basic" output format.
type ValidationIssue struct {
	KeywordLocation         string `json:"keywordLocation"`
	AbsoluteKeywordLocation string `json:"absoluteKeywordLocation,omitempty"`
	InstanceLocation        string `json:"instanceLocation"`
	Message                 string `json:"error"`
}

// ValidationResult is the outcome of meta-schema validation.
type ValidationResult struct {
	Draft  Draft             `json:"draft"`
	Valid  bool              `json:"valid"`
	Errors []ValidationIssue `json:"errors,omitempty"`
}

// ChangeSummary counts structural changes between two schema documents.
// RemovedPaths lists JSON pointers that existed in the previous document
// and are gone in the current one.
type ChangeSummary struct {
	Added        int      `json:"added"`
	Removed      int      `json:"removed"`
	Replaced     int      `json:"replaced"`
	RemovedPaths []string `json:"removed_paths,omitempty"`
}

// Empty reports whether no structural change was recorded.
func (c ChangeSummary) Empty() bool {
	return c.Added == 0 && c.Removed == 0 && c.Replaced == 0
}

// DiffResult is the outcome of comparing the current schema with the one
// published with a previous release. An empty Text means no differences.
type DiffResult struct {
	Outcome     DiffOutcome    `json:"outcome"`
	PreviousTag string         `json:"previous_tag,omitempty"`
	Text        string         `json:"text,omitempty"`
	Changes     *ChangeSummary `json:"changes,omitempty"`
}

// Enabled reports whether diffing was requested for the run.
func (d DiffResult) Enabled() bool {
	return d.Outcome != "" && d.Outcome != DiffNotConfigured
}

// Report is the rendered markdown check result.
type Report struct {
	// Message is the full report, Next Steps included.
	Message string `json:"message"`
	// Summary is Message without the Next Steps section.
	Summary string `json:"summary"`
}

// ReleaseContext describes the release that triggered the run, if any.
type ReleaseContext struct {
	EventName string `json:"event_name"`
	Action    string `json:"action"`
	TagName   string `json:"tag_name"`
	UploadURL string `json:"upload_url"`
}

// IsPublished reports whether the run was triggered by a published release.
func (r ReleaseContext) IsPublished() bool {
	return r.EventName == EventRelease && r.Action == ReleaseActionPublished
}

// UploadResult records the outcome of a release asset upload.
type UploadResult struct {
	AssetName string `json:"asset_name"`
	Path      string `json:"path"`
	Status    int    `json:"status"`
	OK        bool   `json:"ok"`
}

// BundledAssetName returns the release asset file name for a tag.
func BundledAssetName(tag string) string {
	return "bundled-" + tag + ".json"
}

// AssetDownloadURL returns the conventional download location of the bundled
// schema published with tag.
func AssetDownloadURL(serverURL, owner, repo, tag string) string {
	return strings.TrimRight(serverURL, "/") + "/" + owner + "/" + repo +
		"/releases/download/" + tag + "/" + BundledAssetName(tag)
}
