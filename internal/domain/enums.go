package domain

import "fmt"

// Draft identifies a JSON Schema meta-schema version.
type Draft string

const (
	Draft4    Draft = "draft-04"
	Draft6    Draft = "draft-06"
	Draft7    Draft = "draft-07"
	Draft2019 Draft = "2019-09"
	Draft2020 Draft = "2020-12"
)

func (d Draft) Valid() bool {
	switch d {
	case Draft4, Draft6, Draft7, Draft2019, Draft2020:
		return true
	}
	return false
}

// DraftIdentifiers maps every accepted $schema value to its Draft.
// Trailing "#" variants are normalized by DraftFor before lookup.
var DraftIdentifiers = map[string]Draft{
	"http://json-schema.org/draft-04/schema":      Draft4,
	"https://json-schema.org/draft-04/schema":     Draft4,
	"http://json-schema.org/draft-06/schema":      Draft6,
	"https://json-schema.org/draft-06/schema":     Draft6,
	"http://json-schema.org/draft-07/schema":      Draft7,
	"https://json-schema.org/draft-07/schema":     Draft7,
	"http://json-schema.org/draft/2019-09/schema":  Draft2019,
	"https://json-schema.org/draft/2019-09/schema": Draft2019,
	"http://json-schema.org/draft/2020-12/schema":  Draft2020,
	"https://json-schema.org/draft/2020-12/schema": Draft2020,
}

// DraftFor returns the Draft declared by a $schema identifier.
func DraftFor(id string) (Draft, error) {
	n := len(id)
	if n > 0 && id[n-1] == '#' {
		id = id[:n-1]
	}
	d, ok := DraftIdentifiers[id]
	if !ok {
		return "", fmt.Errorf("unknown $schema identifier: %q", id)
	}
	return d, nil
}

// DiffOutcome classifies how the diff section of a report was produced.
type DiffOutcome string

const (
	DiffNotConfigured DiffOutcome = "not_configured"
	DiffNoPrevious    DiffOutcome = "no_previous"
	DiffIdentical     DiffOutcome = "identical"
	DiffChanged       DiffOutcome = "changed"
)

func (o DiffOutcome) Valid() bool {
	switch o {
	case DiffNotConfigured, DiffNoPrevious, DiffIdentical, DiffChanged:
		return true
	}
	return false
}

// Host event and action names that trigger a release publish.
const (
	EventRelease           = "release"
	ReleaseActionPublished = "published"
)
