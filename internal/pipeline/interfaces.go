package pipeline

import (
	"context"

	"github.com/schemacheck/schemacheck-go/internal/domain"
)

// Bundler loads a schema file with every $ref resolved.
type Bundler interface {
	Bundle(ctx context.Context, path string) (any, error)
}

// Validator checks a document against its meta-schema.
type Validator interface {
	Validate(ctx context.Context, doc any) (domain.ValidationResult, error)
}

// Differ compares two documents.
type Differ interface {
	Diff(prev, cur any) (string, error)
	Summarize(prev, cur any) (*domain.ChangeSummary, error)
}

// ReleaseSource finds and fetches the schema published with an earlier
// release. found=false is a normal outcome, not an error.
type ReleaseSource interface {
	LatestVersion(ctx context.Context, override string) (tag string, found bool, err error)
	DownloadBundledSchema(ctx context.Context, tag string) (doc any, found bool, err error)
}

// AssetUploader attaches a file to a release and reports the HTTP status.
type AssetUploader interface {
	UploadReleaseAsset(ctx context.Context, uploadURL, name string, data []byte) (status int, err error)
}
