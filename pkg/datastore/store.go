// Package datastore reads and writes the flat-file index stores: one JSON
// document per category, the blacklist, the removed ledger and grace.json.
package datastore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"curator/pkg/curation"
)

const (
	GraceFile     = "grace.json"
	BlacklistFile = curation.BlacklistName
	RemovedFile   = "removed"
	AuthorsFile   = "authors"
)

// Dir is a data directory holding the index stores.
type Dir struct {
	root   string
	output string
}

// New returns a store rooted at root. The author list goes to output, which
// defaults to root/output when empty; relative paths resolve against root.
func New(root, output string) *Dir {
	if root == "" {
		root = "."
	}
	if output == "" {
		output = "output"
	}
	if !filepath.IsAbs(output) {
		output = filepath.Join(root, output)
	}
	return &Dir{root: root, output: output}
}

func (d *Dir) Root() string {
	return d.root
}

// Load reads every store. Any missing or malformed file fails the load.
func (d *Dir) Load() (*curation.Stores, error) {
	categories, err := d.LoadCategories()
	if err != nil {
		return nil, err
	}
	grace, err := d.LoadGrace()
	if err != nil {
		return nil, err
	}
	var blacklist []curation.RepositoryID
	if err := d.readJSON(BlacklistFile, &blacklist); err != nil {
		return nil, err
	}
	var records []curation.RemovalRecord
	if err := d.readJSON(RemovedFile, &records); err != nil {
		return nil, err
	}
	return &curation.Stores{
		Grace:      grace,
		Categories: categories,
		Ledger:     curation.NewLedger(blacklist, records),
	}, nil
}

// LoadCategories reads only the category files, keeping file order.
func (d *Dir) LoadCategories() (*curation.CategoryStore, error) {
	store := curation.NewCategoryStore()
	for _, c := range curation.Categories() {
		var ids []curation.RepositoryID
		if err := d.readJSON(string(c), &ids); err != nil {
			return nil, err
		}
		store.Set(c, ids)
	}
	return store, nil
}

func (d *Dir) LoadGrace() (*curation.GraceRegistry, error) {
	grace := curation.NewGraceRegistry(nil)
	if err := d.readJSON(GraceFile, grace); err != nil {
		return nil, err
	}
	return grace, nil
}

// Save writes the categories, blacklist and ledger, then the author list.
func (d *Dir) Save(stores *curation.Stores, authors []string) error {
	files, err := indexFiles(stores)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(d.output, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	files = append(files, pendingFile{
		path: filepath.Join(d.output, AuthorsFile),
		data: []byte(curation.FormatAuthors(authors)),
	})
	return d.commit(files)
}

// SaveIndex writes the categories, blacklist and ledger.
func (d *Dir) SaveIndex(stores *curation.Stores) error {
	files, err := indexFiles(stores)
	if err != nil {
		return err
	}
	return d.commit(files)
}

// SaveGrace writes grace.json.
func (d *Dir) SaveGrace(grace *curation.GraceRegistry) error {
	data, err := encode(grace)
	if err != nil {
		return fmt.Errorf("encode %s: %w", GraceFile, err)
	}
	return d.commit([]pendingFile{{path: GraceFile, data: data}})
}

type pendingFile struct {
	path string
	data []byte
	tmp  string
}

func indexFiles(stores *curation.Stores) ([]pendingFile, error) {
	var files []pendingFile
	add := func(name string, v interface{}) error {
		data, err := encode(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", name, err)
		}
		files = append(files, pendingFile{path: name, data: data})
		return nil
	}
	for _, c := range curation.Categories() {
		if err := add(string(c), stores.Categories.Sorted(c)); err != nil {
			return nil, err
		}
	}
	if err := add(BlacklistFile, stores.Ledger.Blacklist()); err != nil {
		return nil, err
	}
	if err := add(RemovedFile, stores.Ledger.Records()); err != nil {
		return nil, err
	}
	return files, nil
}

// commit stages every file next to its target, then renames them in order.
// A staging failure leaves all targets untouched.
func (d *Dir) commit(files []pendingFile) error {
	cleanup := func() {
		for _, f := range files {
			if f.tmp != "" {
				_ = os.Remove(f.tmp)
			}
		}
	}
	for i := range files {
		target := d.resolve(files[i].path)
		files[i].path = target
		tmp, err := stage(target, files[i].data)
		if err != nil {
			cleanup()
			return fmt.Errorf("write %s: %w", filepath.Base(target), err)
		}
		files[i].tmp = tmp
	}
	for i, f := range files {
		if err := os.Rename(f.tmp, f.path); err != nil {
			cleanup()
			return fmt.Errorf("replace %s after %d of %d files: %w", filepath.Base(f.path), i, len(files), err)
		}
		files[i].tmp = ""
	}
	return nil
}

func stage(target string, data []byte) (string, error) {
	f, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".tmp-*")
	if err != nil {
		return "", err
	}
	name := f.Name()
	_, err = f.Write(data)
	if err == nil {
		err = f.Sync()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(name, 0o644)
	}
	if err != nil {
		_ = os.Remove(name)
		return "", err
	}
	return name, nil
}

func (d *Dir) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(d.root, name)
}

func (d *Dir) readJSON(name string, v interface{}) error {
	data, err := os.ReadFile(d.resolve(name))
	if err != nil {
		return &curation.LoadError{Store: name, Err: err}
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return &curation.LoadError{Store: name, Err: errors.New("empty document")}
	}
	if bytes.Equal(trimmed, []byte("null")) {
		return &curation.LoadError{Store: name, Err: errors.New("null document")}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &curation.LoadError{Store: name, Err: err}
	}
	return nil
}

// encode renders v with two-space indentation and no trailing newline.
func encode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return []byte(strings.TrimRight(buf.String(), "\n")), nil
}
