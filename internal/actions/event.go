package actions

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Event is the subset of the triggering webhook event this action reads.
type Event struct {
	Name    string
	Action  string
	Release *Release
}

// Release is the release object of a "release" event payload.
type Release struct {
	TagName   string `json:"tag_name"`
	UploadURL string `json:"upload_url"`
}

type eventPayload struct {
	Action  string   `json:"action"`
	Release *Release `json:"release"`
}

// Event loads the triggering event from the runner context. Without a
// payload file the Event carries only the name.
func (r *Runtime) Event() (Event, error) {
	gh, err := r.action.Context()
	if err != nil {
		return Event{}, fmt.Errorf("actions: read event payload: %w", err)
	}
	ev := Event{Name: gh.EventName}
	if len(gh.Event) == 0 {
		return ev, nil
	}

	data, err := json.Marshal(gh.Event)
	if err != nil {
		return Event{}, fmt.Errorf("actions: encode event payload: %w", err)
	}
	var p eventPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return Event{}, fmt.Errorf("actions: parse event payload: %w", err)
	}
	ev.Action = p.Action
	ev.Release = p.Release
	return ev, nil
}

// Repository splits $GITHUB_REPOSITORY into owner and name.
func (r *Runtime) Repository() (owner, repo string, err error) {
	full := r.getenv("GITHUB_REPOSITORY")
	gh, err := r.action.Context()
	if err != nil {
		return "", "", fmt.Errorf("actions: read context: %w", err)
	}
	owner, repo = gh.Repo()
	if owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("actions: GITHUB_REPOSITORY must be owner/repo, got %q", full)
	}
	return owner, repo, nil
}
