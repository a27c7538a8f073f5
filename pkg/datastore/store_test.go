package datastore

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"curator/pkg/curation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func readFile(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(data)
}

func seedDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, c := range curation.Categories() {
		writeFile(t, dir, string(c), "[]")
	}
	writeFile(t, dir, BlacklistFile, "[]")
	writeFile(t, dir, RemovedFile, "[]")
	writeFile(t, dir, GraceFile, "{}")
	return dir
}

func TestLoadMissingStoreNamesTheStore(t *testing.T) {
	dir := seedDir(t)
	require.NoError(t, os.Remove(filepath.Join(dir, RemovedFile)))

	_, err := New(dir, "").Load()
	var loadErr *curation.LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, RemovedFile, loadErr.Store)
}

func TestLoadMalformedStore(t *testing.T) {
	dir := seedDir(t)
	writeFile(t, dir, "theme", `["a/b",`)

	_, err := New(dir, "").Load()
	var loadErr *curation.LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, "theme", loadErr.Store)
}

func TestLoadRejectsNullDocuments(t *testing.T) {
	for _, name := range []string{"integration", BlacklistFile, RemovedFile, GraceFile} {
		dir := seedDir(t)
		writeFile(t, dir, name, "null\n")

		_, err := New(dir, "").Load()
		var loadErr *curation.LoadError
		require.True(t, errors.As(err, &loadErr), name)
		assert.Equal(t, name, loadErr.Store)
	}
}

func TestLoadGraceNullIsLoadError(t *testing.T) {
	dir := seedDir(t)
	writeFile(t, dir, GraceFile, "null")

	grace, err := New(dir, "").LoadGrace()
	var loadErr *curation.LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, GraceFile, loadErr.Store)
	assert.Nil(t, grace)
}

func TestLoadKeepsFileOrder(t *testing.T) {
	dir := seedDir(t)
	writeFile(t, dir, "plugin", `["b/two", "A/one"]`)

	stores, err := New(dir, "").Load()
	require.NoError(t, err)
	assert.Equal(t, []curation.RepositoryID{"b/two", "A/one"}, stores.Categories.Members(curation.Plugin))
}

func TestSaveSortsAndFormats(t *testing.T) {
	dir := seedDir(t)
	writeFile(t, dir, "plugin", `["b/two", "A/one", "a/zero"]`)
	writeFile(t, dir, BlacklistFile, `["Zed/x", "alpha/y"]`)
	writeFile(t, dir, RemovedFile, `[{"repository": "Zed/x", "removal_type": "removal", "reason": "gone"}]`)
	store := New(dir, "")

	stores, err := store.Load()
	require.NoError(t, err)
	require.NoError(t, store.Save(stores, []string{"a", "b"}))

	assert.Equal(t, "[\n  \"A/one\",\n  \"a/zero\",\n  \"b/two\"\n]", readFile(t, dir, "plugin"))
	assert.Equal(t, "[\n  \"alpha/y\",\n  \"Zed/x\"\n]", readFile(t, dir, BlacklistFile))
	assert.Equal(t, "[]", readFile(t, dir, "theme"))
	assert.JSONEq(t, `[{"repository": "Zed/x", "removal_type": "removal", "reason": "gone"}]`, readFile(t, dir, RemovedFile))
	assert.Equal(t, "@a, @b", readFile(t, filepath.Join(dir, "output"), AuthorsFile))

	reloaded, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, curation.Unsorted(reloaded))
}

func TestSaveLeavesNoTemporaryFiles(t *testing.T) {
	dir := seedDir(t)
	store := New(dir, "")
	stores, err := store.Load()
	require.NoError(t, err)
	require.NoError(t, store.Save(stores, nil))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.NotContains(t, entry.Name(), ".tmp-")
	}
}

func TestSaveFailureLeavesStoresUntouched(t *testing.T) {
	dir := seedDir(t)
	writeFile(t, dir, "integration", `["b/two", "a/one"]`)
	blocker := filepath.Join(dir, "blocked")
	writeFile(t, dir, "blocked", "not a directory")
	store := New(dir, blocker)

	stores, err := store.Load()
	require.NoError(t, err)
	require.Error(t, store.Save(stores, []string{"a"}))
	assert.Equal(t, `["b/two", "a/one"]`, readFile(t, dir, "integration"))
}

func TestSaveGraceRoundTrip(t *testing.T) {
	dir := seedDir(t)
	store := New(dir, "")
	grace, err := store.LoadGrace()
	require.NoError(t, err)

	now := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
	grace.Grant("OwnerA/Foo", now, curation.DefaultGracePeriod)
	require.NoError(t, store.SaveGrace(grace))

	var raw map[string]curation.GraceEntry
	require.NoError(t, json.Unmarshal([]byte(readFile(t, dir, GraceFile)), &raw))
	assert.Equal(t, 1, raw["OwnerA/Foo"].Count)
	assert.Equal(t, now.Add(curation.DefaultGracePeriod).Unix(), raw["OwnerA/Foo"].UntilTime().Unix())
}

type scenarioProvider struct{}

func (scenarioProvider) Repository(_ context.Context, repo curation.RepositoryID) (curation.RepositoryMetadata, error) {
	now := time.Now()
	meta := curation.RepositoryMetadata{Repository: repo, OwnerType: curation.OwnerUser, OwnerLogin: repo.Owner()}
	switch repo {
	case "OwnerA/Foo":
		meta.LastPushedAt = now.Add(-200 * 24 * time.Hour)
		meta.OpenIssueCount = 2
	default:
		meta.LastPushedAt = now.Add(-24 * time.Hour)
	}
	return meta, nil
}

func (scenarioProvider) OrganizationRepositories(context.Context, string) ([]curation.RepositoryID, error) {
	return nil, nil
}

func (scenarioProvider) Contributors(context.Context, curation.RepositoryID) ([]curation.Contributor, error) {
	return nil, nil
}

func TestCleanupScenarioOnDisk(t *testing.T) {
	dir := seedDir(t)
	writeFile(t, dir, "integration", `["OwnerA/Foo", "OwnerB/Bar"]`)

	cleaner := curation.NewCleaner(New(dir, ""), scenarioProvider{},
		curation.WithOrganizations(),
		curation.WithLogger(log.New(io.Discard, "", 0)),
	)
	_, err := cleaner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "[\n  \"OwnerB/Bar\"\n]", readFile(t, dir, "integration"))
	assert.Equal(t, "[\n  \"OwnerA/Foo\"\n]", readFile(t, dir, BlacklistFile))
	assert.JSONEq(t, `[{"repository": "OwnerA/Foo", "removal_type": "stale"}]`, readFile(t, dir, RemovedFile))
	assert.Contains(t, readFile(t, filepath.Join(dir, "output"), AuthorsFile), "@OwnerA")
}
