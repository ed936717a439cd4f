package domain

import (
	"encoding/json"
	"testing"
)

func TestReleaseContextIsPublished(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		rc   ReleaseContext
		want bool
	}{
		{name: "published release", rc: ReleaseContext{EventName: "release", Action: "published"}, want: true},
		{name: "created release", rc: ReleaseContext{EventName: "release", Action: "created"}, want: false},
		{name: "pull request", rc: ReleaseContext{EventName: "pull_request", Action: "published"}, want: false},
		{name: "empty", rc: ReleaseContext{}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.rc.IsPublished(); got != tt.want {
				t.Errorf("IsPublished() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBundledAssetName(t *testing.T) {
	t.Parallel()
	if got := BundledAssetName("v2.0.0"); got != "bundled-v2.0.0.json" {
		t.Errorf("BundledAssetName() = %q", got)
	}
}

func TestAssetDownloadURL(t *testing.T) {
	t.Parallel()
	got := AssetDownloadURL("https://github.com/", "acme", "schemas", "v1.2.0")
	want := "https://github.com/acme/schemas/releases/download/v1.2.0/bundled-v1.2.0.json"
	if got != want {
		t.Errorf("AssetDownloadURL() = %q, want %q", got, want)
	}
}

func TestDiffResultEnabled(t *testing.T) {
	t.Parallel()
	if (DiffResult{}).Enabled() {
		t.Error("zero DiffResult should not be enabled")
	}
	if (DiffResult{Outcome: DiffNotConfigured}).Enabled() {
		t.Error("not_configured should not be enabled")
	}
	if !(DiffResult{Outcome: DiffNoPrevious}).Enabled() {
		t.Error("no_previous should be enabled")
	}
}

func TestValidationIssueJSONFieldNames(t *testing.T) {
	t.Parallel()
	issue := ValidationIssue{
		KeywordLocation:  "/properties/type/anyOf",
		InstanceLocation: "/type",
		Message:          "anyOf failed",
	}
	data, err := json.Marshal(issue)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"keywordLocation", "instanceLocation", "error"} {
		if _, ok := m[key]; !ok {
			t.Errorf("missing key %q in %s", key, data)
		}
	}
	if _, ok := m["absoluteKeywordLocation"]; ok {
		t.Errorf("empty absoluteKeywordLocation should be omitted: %s", data)
	}
}

func TestChangeSummaryEmpty(t *testing.T) {
	t.Parallel()
	if !(ChangeSummary{}).Empty() {
		t.Error("zero summary should be empty")
	}
	if (ChangeSummary{Removed: 1}).Empty() {
		t.Error("summary with a removal should not be empty")
	}
}
