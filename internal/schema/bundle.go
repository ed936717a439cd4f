package schema

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-openapi/jsonpointer"
	"github.com/santhosh-tekuri/jsonschema/v5"
	_ "github.com/santhosh-tekuri/jsonschema/v5/httploader" // registers http and https for LoadURL
)

// RefError reports a $ref that could not be resolved.
type RefError struct {
	Ref  string
	Base string
	Err  error
}

func (e *RefError) Error() string {
	return fmt.Sprintf("schema: resolve $ref %q in %s: %v", e.Ref, e.Base, e.Err)
}

func (e *RefError) Unwrap() error { return e.Err }

// Loader reads schema documents and inlines their references.
type Loader struct {
	logger *slog.Logger
	// openURL loads non-file URLs. Defaults to jsonschema.LoadURL.
	openURL func(string) (io.ReadCloser, error)
}

// Option configures a Loader.
type Option func(*Loader)

// WithURLOpener replaces the loader used for http(s) and other non-file URLs.
func WithURLOpener(fn func(string) (io.ReadCloser, error)) Option {
	return func(l *Loader) { l.openURL = fn }
}

// NewLoader creates a Loader.
func NewLoader(logger *slog.Logger, opts ...Option) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Loader{logger: logger, openURL: jsonschema.LoadURL}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Bundle reads the schema at path and returns it with every resolvable $ref
// replaced by the referenced content. References that would recurse into
// themselves are kept as a local $ref to the place the target was inlined, so
// the result never points back at the source files.
func (l *Loader) Bundle(ctx context.Context, path string) (any, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("schema: resolve path %s: %w", path, err)
	}
	root := fileURL(abs)

	b := &bundler{
		ctx:    ctx,
		loader: l,
		root:   root,
		docs:   make(map[string]any),
		active: make(map[string]string),
	}
	doc, err := b.document(root)
	if err != nil {
		return nil, err
	}
	out, err := b.resolve(doc, root, "")
	if err != nil {
		return nil, err
	}
	l.logger.Debug("bundled schema", "path", path, "documents", len(b.docs))
	return out, nil
}

type bundler struct {
	ctx    context.Context
	loader *Loader
	root   string
	docs   map[string]any
	// active maps each absolute target currently being inlined to the JSON
	// pointer of its position in the output.
	active map[string]string
}

func (b *bundler) document(docURL string) (any, error) {
	if doc, ok := b.docs[docURL]; ok {
		return doc, nil
	}
	if err := b.ctx.Err(); err != nil {
		return nil, err
	}

	u, err := url.Parse(docURL)
	if err != nil {
		return nil, fmt.Errorf("schema: parse url %s: %w", docURL, err)
	}

	var data []byte
	if u.Scheme == "file" {
		data, err = os.ReadFile(filepath.FromSlash(u.Path))
		if err != nil {
			return nil, fmt.Errorf("schema: read %s: %w", u.Path, err)
		}
	} else {
		rc, err := b.loader.openURL(docURL)
		if err != nil {
			return nil, fmt.Errorf("schema: load %s: %w", docURL, err)
		}
		data, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("schema: load %s: %w", docURL, err)
		}
	}

	doc, err := Parse(data, u.Path)
	if err != nil {
		return nil, err
	}
	b.docs[docURL] = doc
	b.loader.logger.Debug("loaded schema document", "url", docURL)
	return doc, nil
}

// resolve returns a copy of node with references inlined. base is the URL
// of the document node belongs to and at is node's pointer in the output.
func (b *bundler) resolve(node any, base, at string) (any, error) {
	switch t := node.(type) {
	case map[string]any:
		if ref, ok := t["$ref"].(string); ok {
			return b.resolveRef(t, ref, base, at)
		}
		out := make(map[string]any, len(t))
		for k, v := range t {
			r, err := b.resolve(v, base, at+"/"+jsonpointer.Escape(k))
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, v := range t {
			r, err := b.resolve(v, base, at+"/"+strconv.Itoa(i))
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	default:
		return node, nil
	}
}

func (b *bundler) resolveRef(obj map[string]any, ref, base, at string) (any, error) {
	target, err := absolute(base, ref)
	if err != nil {
		return nil, &RefError{Ref: ref, Base: base, Err: err}
	}
	docURL, frag, _ := strings.Cut(target, "#")

	var resolved any
	if first, ok := b.active[target]; ok {
		// Root fragments survive bundling unchanged; other targets only
		// exist where they were inlined.
		kept := "#" + first
		if docURL == b.root {
			kept = "#" + frag
		}
		b.loader.logger.Debug("circular $ref kept", "ref", ref, "base", base, "kept", kept)
		resolved = map[string]any{"$ref": kept}
	} else {
		doc, err := b.document(docURL)
		if err != nil {
			return nil, &RefError{Ref: ref, Base: base, Err: err}
		}
		value, err := pointer(doc, frag)
		if err != nil {
			return nil, &RefError{Ref: ref, Base: base, Err: err}
		}
		b.active[target] = at
		resolved, err = b.resolve(value, docURL, at)
		delete(b.active, target)
		if err != nil {
			return nil, err
		}
	}

	if len(obj) == 1 {
		return resolved, nil
	}
	merged, ok := resolved.(map[string]any)
	if !ok {
		b.loader.logger.Warn("keywords next to a non-object $ref target dropped", "ref", ref)
		return resolved, nil
	}
	out := make(map[string]any, len(merged)+len(obj))
	for k, v := range merged {
		out[k] = v
	}
	for k, v := range obj {
		if k == "$ref" {
			continue
		}
		r, err := b.resolve(v, base)
		if err != nil {
			return nil, err
		}
		out[k] = r
	}
	return out, nil
}

func pointer(doc any, frag string) (any, error) {
	if frag == "" {
		return doc, nil
	}
	if !strings.HasPrefix(frag, "/") {
		return nil, fmt.Errorf("unsupported fragment %q (only JSON pointers are resolved)", frag)
	}
	p, err := jsonpointer.New(frag)
	if err != nil {
		return nil, err
	}
	v, _, err := p.Get(doc)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// absolute resolves ref against base and returns the result with its
// fragment decoded and always present, e.g. file:///s/a.json#/defs/x.
func absolute(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	u := b.ResolveReference(r)
	frag := u.Fragment
	u.Fragment = ""
	u.RawFragment = ""
	return u.String() + "#" + frag, nil
}

func fileURL(abs string) string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
}
