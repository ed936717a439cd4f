package actions

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapEnv(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestInput_NameMapping(t *testing.T) {
	rt := New(mapEnv(map[string]string{
		"INPUT_SCHEMAPATH":   "  schema.json ",
		"INPUT_GITHUB_TOKEN": "tkn",
	}), &bytes.Buffer{})

	assert.Equal(t, "schema.json", rt.Input("schemaPath"))
	assert.Equal(t, "tkn", rt.Input("github_token"))
	assert.Equal(t, "", rt.Input("missing"))
}

func TestRequiredInput_Missing(t *testing.T) {
	rt := New(mapEnv(nil), &bytes.Buffer{})

	_, err := rt.RequiredInput("schemaPath")
	require.Error(t, err)
	var ie *InputError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "schemaPath", ie.Name)
	assert.Equal(t, "Input required and not supplied: schemaPath", err.Error())
}

func TestBoolInput(t *testing.T) {
	tests := []struct {
		raw      string
		fallback bool
		want     bool
		wantErr  bool
	}{
		{raw: "true", want: true},
		{raw: "True", want: true},
		{raw: "TRUE", want: true},
		{raw: "false", fallback: true, want: false},
		{raw: "FALSE", fallback: true, want: false},
		{raw: "", fallback: true, want: true},
		{raw: "", fallback: false, want: false},
		{raw: "yes", wantErr: true},
		{raw: "1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			rt := New(mapEnv(map[string]string{"INPUT_VALIDATE": tt.raw}), &bytes.Buffer{})
			got, err := rt.BoolInput("validate", tt.fallback)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "YAML 1.2")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetOutput_File(t *testing.T) {
	out := filepath.Join(t.TempDir(), "output")
	rt := New(mapEnv(map[string]string{"GITHUB_OUTPUT": out}), &bytes.Buffer{})

	rt.SetOutput("message", "line one\nline two")
	rt.SetOutput("summary", "short")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	re := regexp.MustCompile(`(?s)^message<<(\S+)\nline one\nline two\n(\S+)\nsummary<<(\S+)\nshort\n(\S+)\n$`)
	m := re.FindStringSubmatch(string(data))
	require.NotNil(t, m, "unexpected output file:\n%s", data)
	assert.Equal(t, m[1], m[2])
	assert.Equal(t, m[3], m[4])
}

func TestAppendSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.md")
	rt := New(mapEnv(map[string]string{"GITHUB_STEP_SUMMARY": path}), &bytes.Buffer{})

	rt.AppendSummary("# Title")
	rt.AppendSummary("body\n")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# Title\nbody\n", string(data))
}

func TestAppendSummary_NoFile(t *testing.T) {
	var buf bytes.Buffer
	rt := New(mapEnv(nil), &buf)
	rt.AppendSummary("ignored")
	assert.Empty(t, buf.String())
}

func TestSetFailed(t *testing.T) {
	var buf bytes.Buffer
	rt := New(mapEnv(nil), &buf)
	assert.False(t, rt.Failed())
	assert.Equal(t, 0, rt.ExitCode())

	rt.SetFailed("100% broken\nsecond line")

	assert.True(t, rt.Failed())
	assert.Equal(t, 1, rt.ExitCode())
	assert.Equal(t, "::error::100%25 broken%0Asecond line\n", buf.String())
}

func TestEvent_Release(t *testing.T) {
	path := filepath.Join(t.TempDir(), "event.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"action": "published",
		"release": {"tag_name": "v2.0.0", "upload_url": "https://uploads.github.com/repos/o/r/releases/1/assets{?name,label}"}
	}`), 0o644))
	rt := New(mapEnv(map[string]string{
		"GITHUB_EVENT_NAME": "release",
		"GITHUB_EVENT_PATH": path,
	}), &bytes.Buffer{})

	ev, err := rt.Event()
	require.NoError(t, err)
	assert.Equal(t, "release", ev.Name)
	assert.Equal(t, "published", ev.Action)
	require.NotNil(t, ev.Release)
	assert.Equal(t, "v2.0.0", ev.Release.TagName)
}

func TestEvent_MissingPayload(t *testing.T) {
	rt := New(mapEnv(map[string]string{
		"GITHUB_EVENT_NAME": "pull_request",
		"GITHUB_EVENT_PATH": filepath.Join(t.TempDir(), "absent.json"),
	}), &bytes.Buffer{})

	ev, err := rt.Event()
	require.NoError(t, err)
	assert.Equal(t, "pull_request", ev.Name)
	assert.Nil(t, ev.Release)
}

func TestEvent_BadPayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "event.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))
	rt := New(mapEnv(map[string]string{"GITHUB_EVENT_PATH": path}), &bytes.Buffer{})

	_, err := rt.Event()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "actions: read event payload")
}

func TestRepository(t *testing.T) {
	rt := New(mapEnv(map[string]string{"GITHUB_REPOSITORY": "acme/schemas"}), &bytes.Buffer{})
	owner, repo, err := rt.Repository()
	require.NoError(t, err)
	assert.Equal(t, "acme", owner)
	assert.Equal(t, "schemas", repo)

	for _, bad := range []string{"", "acme", "acme/", "/schemas", "a/b/c"} {
		rt := New(mapEnv(map[string]string{"GITHUB_REPOSITORY": bad}), &bytes.Buffer{})
		_, _, err := rt.Repository()
		assert.Error(t, err, "GITHUB_REPOSITORY=%q", bad)
	}
}

func TestLogHandler_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewLogHandler(&buf, slog.LevelDebug))

	logger.Debug("resolving ref", "ref", "#/definitions/a")
	logger.Info("bundled schema", "path", "schema.json")
	logger.Warn("diff is large", "length", 1200)
	logger.Error("upload failed", "status", 500)

	assert.Equal(t,
		"::debug::resolving ref ref=#/definitions/a\n"+
			"bundled schema path=schema.json\n"+
			"::warning::diff is large length=1200\n"+
			"::error::upload failed status=500\n",
		buf.String())
}

func TestLogHandler_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewLogHandler(&buf, slog.LevelInfo))

	logger.Debug("hidden")
	assert.Empty(t, buf.String())
}

func TestLogHandler_AttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewLogHandler(&buf, slog.LevelInfo)).
		With("run", "r1").
		WithGroup("diff").
		With("tag", "v1")

	logger.Info("compared", "size", 3, "note", "two words")
	assert.Equal(t, "compared run=r1 diff.tag=v1 diff.size=3 diff.note=\"two words\"\n", buf.String())
}
