// Package github provides the REST calls the schema check makes against the
// source-hosting service: release and tag lookups, bundled schema downloads
// and release asset uploads.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"

	"github.com/schemacheck/schemacheck-go/internal/domain"
	"github.com/schemacheck/schemacheck-go/internal/ratelimit"
	"github.com/schemacheck/schemacheck-go/internal/schema"
)

const apiVersion = "2022-11-28"

// Options configures a Client.
type Options struct {
	Owner     string
	Repo      string
	APIURL    string
	ServerURL string
	Token     string
	Limiter   *ratelimit.Limiter
}

// StatusError is returned when the service answers with an unexpected status.
type StatusError struct {
	Op         string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("github: %s: unexpected status %d", e.Op, e.StatusCode)
}

// Client talks to the REST API and the release download host.
type Client struct {
	opts Options
	// api carries the bearer token. download does not, so the token never
	// follows a redirect to the asset CDN.
	api      *http.Client
	download *http.Client
	// assets is api without redirects; asset bodies are fetched through
	// download from the returned Location.
	assets *http.Client
}

// New creates a Client on the default transport.
func New(opts Options) *Client {
	return NewWithHTTPClient(opts, &http.Client{})
}

// NewWithHTTPClient creates a Client whose requests go through hc's transport
// (for testing).
func NewWithHTTPClient(opts Options, hc *http.Client) *Client {
	opts.APIURL = strings.TrimRight(opts.APIURL, "/")
	opts.ServerURL = strings.TrimRight(opts.ServerURL, "/")

	base := hc.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	traced := otelhttp.NewTransport(base)

	var authed http.RoundTripper = traced
	if opts.Token != "" {
		authed = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}),
			Base:   traced,
		}
	}

	return &Client{
		opts:     opts,
		api:      &http.Client{Transport: authed, Timeout: hc.Timeout},
		download: &http.Client{Transport: traced, Timeout: hc.Timeout},
		assets: &http.Client{
			Transport: authed,
			Timeout:   hc.Timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

type release struct {
	TagName string `json:"tag_name"`
}

type tag struct {
	Name string `json:"name"`
}

type releaseAssets struct {
	Assets []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"assets"`
}

// LatestRelease returns the tag of the latest published release. found is
// false when the repository has no release.
func (c *Client) LatestRelease(ctx context.Context) (tagName string, found bool, err error) {
	var r release
	found, err = c.getJSON(ctx, "latest release", c.repoURL("/releases/latest"), &r)
	if err != nil || !found {
		return "", false, err
	}
	return r.TagName, r.TagName != "", nil
}

// LatestTag returns the first tag the API lists. found is false when the
// repository has no tags.
func (c *Client) LatestTag(ctx context.Context) (tagName string, found bool, err error) {
	var tags []tag
	found, err = c.getJSON(ctx, "list tags", c.repoURL("/tags?per_page=1"), &tags)
	if err != nil || !found || len(tags) == 0 {
		return "", false, err
	}
	return tags[0].Name, tags[0].Name != "", nil
}

// LatestVersion picks the version to diff against: override when set, else
// the latest release, else the most recent tag.
func (c *Client) LatestVersion(ctx context.Context, override string) (string, bool, error) {
	if override != "" {
		return override, true, nil
	}
	if t, ok, err := c.LatestRelease(ctx); err != nil || ok {
		return t, ok, err
	}
	return c.LatestTag(ctx)
}

// DownloadBundledSchema fetches the bundled schema published with tag from
// the public download host. When that fails and a token is configured, the
// asset is looked up through the REST API instead, which also covers private
// repositories. found is false when neither source has the asset.
func (c *Client) DownloadBundledSchema(ctx context.Context, tagName string) (doc any, found bool, err error) {
	name := domain.BundledAssetName(tagName)
	data, found, err := c.fetch(ctx, domain.AssetDownloadURL(c.opts.ServerURL, c.opts.Owner, c.opts.Repo, tagName))
	if err != nil {
		return nil, false, err
	}
	if !found && c.opts.Token != "" {
		data, found, err = c.downloadAsset(ctx, tagName, name)
		if err != nil {
			return nil, false, err
		}
	}
	if !found {
		return nil, false, nil
	}

	doc, err = schema.Parse(data, name)
	if err != nil {
		return nil, false, err
	}
	return doc, true, nil
}

// fetch GETs u without credentials. found is false on any non-2xx status.
func (c *Client) fetch(ctx context.Context, u string) ([]byte, bool, error) {
	if err := c.opts.Limiter.Wait(ctx, ratelimit.Download); err != nil {
		return nil, false, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false, fmt.Errorf("github: download request: %w", err)
	}

	resp, err := c.download.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("github: download %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, false, nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("github: download %s: %w", u, err)
	}
	return data, true, nil
}

// downloadAsset finds the named asset on the release for tag and reads it
// through the API's asset endpoint.
func (c *Client) downloadAsset(ctx context.Context, tagName, name string) ([]byte, bool, error) {
	var rel releaseAssets
	found, err := c.getJSON(ctx, "release by tag", c.repoURL("/releases/tags/"+url.PathEscape(tagName)), &rel)
	if err != nil || !found {
		return nil, false, err
	}
	var id int64
	for _, a := range rel.Assets {
		if a.Name == name {
			id = a.ID
			break
		}
	}
	if id == 0 {
		return nil, false, nil
	}

	if err := c.opts.Limiter.Wait(ctx, ratelimit.API); err != nil {
		return nil, false, err
	}
	u := c.repoURL("/releases/assets/" + strconv.FormatInt(id, 10))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false, fmt.Errorf("github: asset request: %w", err)
	}
	req.Header.Set("Accept", "application/octet-stream")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)

	resp, err := c.assets.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("github: download asset %s: %w", name, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, false, fmt.Errorf("github: download asset %s: %w", name, err)
		}
		return data, true, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, nil
	case resp.StatusCode >= 300 && resp.StatusCode < 400:
		loc, err := resp.Location()
		if err != nil {
			return nil, false, fmt.Errorf("github: download asset %s: %w", name, err)
		}
		return c.fetch(ctx, loc.String())
	default:
		return nil, false, &StatusError{Op: "download asset", StatusCode: resp.StatusCode}
	}
}

// UploadReleaseAsset posts data as a release asset named name. uploadURL is
// the release's upload_url; its {?name,label} template suffix is dropped.
// The response status is returned as is; deciding what counts as success is
// left to the caller.
func (c *Client) UploadReleaseAsset(ctx context.Context, uploadURL, name string, data []byte) (int, error) {
	if err := c.opts.Limiter.Wait(ctx, ratelimit.Upload); err != nil {
		return 0, err
	}
	target, _, _ := strings.Cut(uploadURL, "{")
	u, err := url.Parse(target)
	if err != nil {
		return 0, fmt.Errorf("github: invalid upload url: %w", err)
	}
	q := u.Query()
	q.Set("name", name)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("github: upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)

	resp, err := c.api.Do(req)
	if err != nil {
		return 0, fmt.Errorf("github: upload %s: %w", name, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

func (c *Client) repoURL(suffix string) string {
	return c.opts.APIURL + "/repos/" + url.PathEscape(c.opts.Owner) + "/" + url.PathEscape(c.opts.Repo) + suffix
}

// getJSON decodes a 200 response into out. A 404 reports found=false.
func (c *Client) getJSON(ctx context.Context, op, u string, out any) (bool, error) {
	if err := c.opts.Limiter.Wait(ctx, ratelimit.API); err != nil {
		return false, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, fmt.Errorf("github: %s: %w", op, err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)

	resp, err := c.api.Do(req)
	if err != nil {
		return false, fmt.Errorf("github: %s: %w", op, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return false, nil
	default:
		return false, &StatusError{Op: op, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("github: %s: decode response: %w", op, err)
	}
	return true, nil
}
