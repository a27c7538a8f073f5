package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"curator/pkg/checks"
	"curator/pkg/curation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedIndex(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	defaults := map[string]string{"blacklist": "[]", "removed": "[]", "grace.json": "{}"}
	for _, c := range curation.Categories() {
		defaults[string(c)] = "[]"
	}
	for name, content := range files {
		defaults[name] = content
	}
	for name, content := range defaults {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "curator.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func readIDs(t *testing.T, dir, name string) []string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	var ids []string
	require.NoError(t, json.Unmarshal(data, &ids))
	return ids
}

func TestRemoveCommand(t *testing.T) {
	dir := seedIndex(t, map[string]string{"integration": `["alice/sensor", "bob/light"]`})

	out, err := run(t, "--data-dir", dir, "remove", "alice/sensor", "removal", "Broken", "https://example.com/1")
	require.NoError(t, err)
	assert.Contains(t, out, "Found in integration")

	assert.Equal(t, []string{"bob/light"}, readIDs(t, dir, "integration"))
	assert.Equal(t, []string{"alice/sensor"}, readIDs(t, dir, "blacklist"))

	data, err := os.ReadFile(filepath.Join(dir, "removed"))
	require.NoError(t, err)
	var records []curation.RemovalRecord
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 1)
	assert.Equal(t, curation.RemovalRemoval, records[0].RemovalType)
	require.NotNil(t, records[0].Reason)
	assert.Equal(t, "Broken", *records[0].Reason)

	out, err = run(t, "--data-dir", dir, "remove", "alice/sensor", "removal")
	require.Error(t, err)
	assert.ErrorIs(t, err, curation.ErrNotFound)
	assert.NotContains(t, out, "Found in")
}

func TestRemoveCommandValidation(t *testing.T) {
	dir := seedIndex(t, nil)

	_, err := run(t, "--data-dir", dir, "remove", "alice/sensor", "deleted")
	assert.Error(t, err)

	_, err = run(t, "--data-dir", dir, "remove", "not-a-repo", "removal")
	assert.Error(t, err)

	_, err = run(t, "--data-dir", dir, "remove", "alice/sensor")
	assert.Error(t, err)
}

func TestRemovePublishersCommand(t *testing.T) {
	dir := seedIndex(t, map[string]string{
		"plugin": `["Kraineff/card", "alice/card"]`,
		"theme":  `["kraineff/theme"]`,
	})

	out, err := run(t, "--data-dir", dir, "remove-publishers")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed Kraineff/card")

	assert.Equal(t, []string{"alice/card"}, readIDs(t, dir, "plugin"))
	assert.Empty(t, readIDs(t, dir, "theme"))
	assert.Equal(t, []string{"Kraineff/card", "kraineff/theme"}, readIDs(t, dir, "blacklist"))
}

func TestGraceCommand(t *testing.T) {
	dir := seedIndex(t, map[string]string{"grace.json": `{"alice/sensor": {"until": 1, "count": 2}}`})

	out, err := run(t, "--data-dir", dir, "grace", "alice/sensor")
	require.NoError(t, err)
	assert.Contains(t, out, "count 3")

	data, err := os.ReadFile(filepath.Join(dir, "grace.json"))
	require.NoError(t, err)
	var grace map[string]curation.GraceEntry
	require.NoError(t, json.Unmarshal(data, &grace))
	entry := grace["alice/sensor"]
	assert.Equal(t, 3, entry.Count)
	until := entry.UntilTime()
	assert.WithinDuration(t, time.Now().Add(60*24*time.Hour), until, time.Minute)
}

func TestSortAndIsSorted(t *testing.T) {
	dir := seedIndex(t, map[string]string{
		"plugin":    `["b/two", "A/one"]`,
		"blacklist": `["Zed/x", "alpha/y"]`,
	})

	out, err := run(t, "--data-dir", dir, "is-sorted")
	require.ErrorIs(t, err, errUnsorted)
	assert.Contains(t, out, "blacklist is not sorted correctly")
	assert.Contains(t, out, "plugin is not sorted correctly")
	assert.Equal(t, 1, ExitCode(err))

	_, err = run(t, "--data-dir", dir, "sort")
	require.NoError(t, err)
	assert.Equal(t, []string{"A/one", "b/two"}, readIDs(t, dir, "plugin"))

	_, err = run(t, "--data-dir", dir, "is-sorted")
	assert.NoError(t, err)
}

func TestChangedCommand(t *testing.T) {
	base := seedIndex(t, map[string]string{"theme": `["a/dark"]`})
	head := seedIndex(t, map[string]string{"theme": `["a/dark", "b/light"]`})

	out, err := run(t, "--data-dir", head, "changed", "--base-dir", base)
	require.NoError(t, err)
	assert.Equal(t, "b/light\n", out)

	out, err = run(t, "--data-dir", head, "changed", "--base-dir", base, "--category")
	require.NoError(t, err)
	assert.Equal(t, "theme\n", out)

	_, err = run(t, "--data-dir", base, "changed", "--base-dir", base)
	assert.Error(t, err)
}

func TestCheckLocalGates(t *testing.T) {
	dir := seedIndex(t, map[string]string{
		"integration": `["alice/sensor"]`,
		"blacklist":   `["eve/gone"]`,
	})

	_, err := run(t, "--data-dir", dir, "check", "existing", "--repository", "Alice/Sensor")
	var failure *checks.Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, 1, ExitCode(err))

	out, err := run(t, "--data-dir", dir, "check", "existing", "--repository", "carol/new")
	require.NoError(t, err)
	assert.NotEmpty(t, out)

	t.Setenv("REPOSITORY", "EVE/gone")
	_, err = run(t, "--data-dir", dir, "check", "removed")
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "removed", failure.Check)
}

func TestCheckRepositoryFromEvent(t *testing.T) {
	dir := seedIndex(t, map[string]string{"plugin": `["bob/card"]`})
	event := filepath.Join(t.TempDir(), "event.json")
	require.NoError(t, os.WriteFile(event, []byte(`{"pull_request":{"head":{"repo":{"full_name":"bob/card"}}}}`), 0o644))
	t.Setenv("REPOSITORY", "")
	t.Setenv("GITHUB_EVENT_PATH", event)

	_, err := run(t, "--data-dir", dir, "check", "existing")
	var failure *checks.Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, curation.RepositoryID("bob/card"), failure.Repository)
}

func newGitHubServer(t *testing.T, mux *http.ServeMux) string {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server.URL
}

func TestCheckForkIsNeutral(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/repos/bob/fork", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"full_name":"bob/fork","fork":true,"owner":{"login":"bob","type":"User"}}`)
	})
	mux.HandleFunc("/api/v3/repos/bob/fork/pulls", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	})
	cfg := writeConfigFile(t, fmt.Sprintf("github:\n  base_url: %s\n  token: test\n", newGitHubServer(t, mux)))

	_, err := run(t, "--config", cfg, "check", "fork", "--repository", "bob/fork")
	require.Error(t, err)
	assert.Equal(t, checks.ExitNeutral, ExitCode(err))
}

func TestCleanupCommand(t *testing.T) {
	pushed := time.Now().Add(-400 * 24 * time.Hour).UTC().Format(time.RFC3339)
	fresh := time.Now().Add(-24 * time.Hour).UTC().Format(time.RFC3339)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/repos/alice/old", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"full_name":"alice/old","open_issues_count":3,"pushed_at":%q,"owner":{"login":"alice","type":"User"}}`, pushed)
	})
	mux.HandleFunc("/api/v3/repos/bob/new", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"full_name":"bob/new","open_issues_count":3,"pushed_at":%q,"owner":{"login":"bob","type":"User"}}`, fresh)
	})
	for _, repo := range []string{"alice/old", "bob/new"} {
		mux.HandleFunc("/api/v3/repos/"+repo+"/pulls", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `[]`)
		})
	}

	dir := seedIndex(t, map[string]string{"integration": `["alice/old", "bob/new"]`})
	historyDSN := filepath.Join(t.TempDir(), "history.db")
	cfg := writeConfigFile(t, fmt.Sprintf(`
data_dir: %s
organizations: []
github:
  base_url: %s
  token: test
notify:
  enabled: true
history:
  enabled: true
  driver: sqlite
  dsn: %s
  auto_migrate: true
`, dir, newGitHubServer(t, mux), historyDSN))

	out, err := run(t, "--config", cfg, "cleanup")
	require.NoError(t, err)
	assert.Contains(t, out, "removed alice/old (stale)")
	assert.Contains(t, out, "@alice")

	assert.Equal(t, []string{"bob/new"}, readIDs(t, dir, "integration"))
	assert.Equal(t, []string{"alice/old"}, readIDs(t, dir, "blacklist"))
	authors, err := os.ReadFile(filepath.Join(dir, "output", "authors"))
	require.NoError(t, err)
	assert.Equal(t, "@alice", string(authors))

	out, err = run(t, "--config", cfg, "history")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "@alice")
}

func TestHistoryRequiresDSN(t *testing.T) {
	_, err := run(t, "--data-dir", seedIndex(t, nil), "history")
	assert.Error(t, err)
}

func TestExecuteExitCodes(t *testing.T) {
	dir := seedIndex(t, nil)
	assert.Equal(t, 0, Execute(context.Background(), "test", []string{"--data-dir", dir, "is-sorted"}))
	assert.Equal(t, 1, Execute(context.Background(), "test", []string{"--data-dir", filepath.Join(dir, "missing"), "is-sorted"}))
}
