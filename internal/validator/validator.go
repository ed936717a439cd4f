// Package validator checks a schema document against the meta-schema of the
// JSON Schema draft it declares.
package validator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/schemacheck/schemacheck-go/internal/domain"
)

// resourceURL names the in-memory resource the document is compiled from.
const resourceURL = "bundled.json"

// BaselineDraft applies when a document declares no $schema, or one that is
// not recognized.
const BaselineDraft = domain.Draft7

var engineDrafts = map[domain.Draft]*jsonschema.Draft{
	domain.Draft4:    jsonschema.Draft4,
	domain.Draft6:    jsonschema.Draft6,
	domain.Draft7:    jsonschema.Draft7,
	domain.Draft2019: jsonschema.Draft2019,
	domain.Draft2020: jsonschema.Draft2020,
}

// MetaValidator validates schema documents against their meta-schema.
type MetaValidator struct {
	logger *slog.Logger
}

// New creates a MetaValidator.
func New(logger *slog.Logger) *MetaValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &MetaValidator{logger: logger}
}

// Validate checks doc as a schema. An invalid schema is reported through the
// result; the error return is reserved for failures to run the check at all.
func (v *MetaValidator) Validate(ctx context.Context, doc any) (domain.ValidationResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.ValidationResult{}, err
	}

	draft, doc := v.selectDraft(doc)
	data, err := json.Marshal(doc)
	if err != nil {
		return domain.ValidationResult{}, fmt.Errorf("validator: encode document: %w", err)
	}
	instance, err := decode(data)
	if err != nil {
		return domain.ValidationResult{}, fmt.Errorf("validator: decode document: %w", err)
	}

	c := jsonschema.NewCompiler()
	c.Draft = engineDrafts[draft]
	c.LoadURL = refuseURL

	// Draft URLs compile to the built-in meta-schemas without loading anything.
	meta, err := c.Compile(engineDrafts[draft].URL())
	if err != nil {
		return domain.ValidationResult{}, fmt.Errorf("validator: meta-schema %s: %w", draft, err)
	}
	if err := meta.Validate(instance); err != nil {
		return invalid(draft, err)
	}

	if err := c.AddResource(resourceURL, bytes.NewReader(data)); err != nil {
		return domain.ValidationResult{}, fmt.Errorf("validator: add document: %w", err)
	}
	if _, err := c.Compile(resourceURL); err != nil {
		return invalid(draft, err)
	}

	v.logger.Debug("schema is valid", "draft", draft)
	return domain.ValidationResult{Draft: draft, Valid: true}, nil
}

// selectDraft picks the draft from $schema. A recognized identifier stays in
// the document so the meta-schema checks it. An absolute URI naming some other
// meta-schema is dropped in favor of the baseline; anything else stays and is
// rejected by the baseline meta-schema.
func (v *MetaValidator) selectDraft(doc any) (domain.Draft, any) {
	obj, ok := doc.(map[string]any)
	if !ok {
		return BaselineDraft, doc
	}
	id, has := obj["$schema"]
	if !has {
		return BaselineDraft, doc
	}

	s, isString := id.(string)
	if isString {
		if draft, err := domain.DraftFor(s); err == nil {
			return draft, doc
		}
	}
	if !isString || !absoluteURI(s) {
		return BaselineDraft, doc
	}

	v.logger.Warn("unrecognized $schema, validating against the baseline draft",
		"schema", s, "draft", BaselineDraft)
	stripped := make(map[string]any, len(obj))
	for k, val := range obj {
		if k != "$schema" {
			stripped[k] = val
		}
	}
	return BaselineDraft, stripped
}

func absoluteURI(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.IsAbs()
}

// refuseURL stands in for the compiler's loader: validation never fetches
// documents.
func refuseURL(s string) (io.ReadCloser, error) {
	return nil, fmt.Errorf("validator: refusing to load %s", s)
}

func decode(data []byte) (any, error) {
	d := json.NewDecoder(bytes.NewReader(data))
	d.UseNumber()
	var v any
	if err := d.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// invalid converts a meta-schema violation into a failed result. Any other
// failure, such as an unresolvable reference, is returned as an error.
func invalid(draft domain.Draft, err error) (domain.ValidationResult, error) {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return domain.ValidationResult{}, fmt.Errorf("validator: compile: %w", err)
	}

	res := domain.ValidationResult{Draft: draft, Valid: false}
	for _, e := range ve.BasicOutput().Errors {
		if e.Error == "" {
			continue
		}
		res.Errors = append(res.Errors, domain.ValidationIssue{
			KeywordLocation:         e.KeywordLocation,
			AbsoluteKeywordLocation: e.AbsoluteKeywordLocation,
			InstanceLocation:        e.InstanceLocation,
			Message:                 e.Error,
		})
	}
	if len(res.Errors) == 0 {
		res.Errors = []domain.ValidationIssue{{Message: ve.Error()}}
	}
	return res, nil
}
