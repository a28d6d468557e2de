// Package corpus indexes the on-disk rule corpus: one folder per rule category,
// each holding plain-text rule files.
package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Hollywood0805/Validation-engine-Backend/internal/types"
)

// DefaultExtensions lists the rule-text file extensions indexed when none are configured.
var DefaultExtensions = []string{".txt"}

// Indexer produces a corpus index for a resolution call.
type Indexer interface {
	Index() (*types.CorpusIndex, error)
}

// FreshIndexer rebuilds the index from disk on every call.
type FreshIndexer struct {
	Root       string
	Extensions []string
}

// NewFreshIndexer creates an indexer over root. Nil extensions use DefaultExtensions.
func NewFreshIndexer(root string, extensions []string) *FreshIndexer {
	return &FreshIndexer{Root: root, Extensions: extensions}
}

// Index implements Indexer.
func (f *FreshIndexer) Index() (*types.CorpusIndex, error) {
	return BuildIndex(f.Root, f.Extensions)
}

// BuildIndex walks the immediate subdirectories of root and records, per
// subdirectory, the stems of rule-text files directly inside it.
// Returns ErrCorpusUnavailable only when root is missing or not a directory.
// An unreadable or empty category yields an empty file list.
func BuildIndex(root string, extensions []string) (*types.CorpusIndex, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrCorpusUnavailable, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", types.ErrCorpusUnavailable, root)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrCorpusUnavailable, err)
	}

	exts := normalizeExtensions(extensions)
	index := &types.CorpusIndex{Root: root}

	for _, entry := range entries {
		if !isDir(root, entry) {
			continue
		}
		index.Categories = append(index.Categories, types.CategoryIndex{
			Name:  entry.Name(),
			Files: listRuleFiles(filepath.Join(root, entry.Name()), exts),
		})
	}

	// os.ReadDir already sorts by name; keep the contract explicit
	sort.SliceStable(index.Categories, func(i, j int) bool {
		return index.Categories[i].Name < index.Categories[j].Name
	})

	return index, nil
}

// listRuleFiles returns the rule files directly inside dir, sorted by file name.
// Read errors yield an empty list rather than failing the whole index.
func listRuleFiles(dir string, exts map[string]bool) []types.RuleFileRef {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return []types.RuleFileRef{}
	}

	files := make([]types.RuleFileRef, 0, len(entries))
	for _, entry := range entries {
		if isDir(dir, entry) {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		if !exts[strings.ToLower(ext)] {
			continue
		}
		stem := strings.TrimSuffix(name, ext)
		if stem == "" {
			continue
		}
		files = append(files, types.RuleFileRef{Stem: stem, Ext: ext})
	}
	return files
}

// isDir follows symlinks so linked category folders are indexed like real ones.
func isDir(parent string, entry os.DirEntry) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(parent, entry.Name()))
	return err == nil && info.IsDir()
}

func normalizeExtensions(extensions []string) map[string]bool {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	exts := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[ext] = true
	}
	return exts
}
