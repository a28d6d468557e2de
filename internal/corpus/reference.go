package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Hollywood0805/Validation-engine-Backend/internal/forms"
	"github.com/Hollywood0805/Validation-engine-Backend/internal/types"
)

// DefaultReferenceCategories are the folders searched for reference rule text.
var DefaultReferenceCategories = []string{
	"generated_rules_derivations",
	"generated_rules_editchecks",
	"generated_rules_protocol",
}

// LoadReference aggregates the text of every rule file whose normalized stem
// equals the normalized form name exactly, across the given category folders
// in order. Missing folders are skipped. An empty categories list searches
// every category of the index.
// Returns ErrReferenceNotFound when no file matches.
func LoadReference(index *types.CorpusIndex, categories []string, formName string) (string, error) {
	target := forms.Normalize(formName)
	if target == "" {
		return "", fmt.Errorf("%w: empty form name", types.ErrReferenceNotFound)
	}

	if len(categories) == 0 {
		for _, cat := range index.Categories {
			categories = append(categories, cat.Name)
		}
	}

	var parts []string
	for _, name := range categories {
		for _, cat := range index.Categories {
			if cat.Name != name {
				continue
			}
			for _, f := range cat.Files {
				if forms.Normalize(f.Stem) != target {
					continue
				}
				content, err := os.ReadFile(filepath.Join(index.Root, cat.Name, f.FileName()))
				if err != nil {
					continue
				}
				parts = append(parts, string(content))
			}
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("%w: no reference text for form %q in any rule folder", types.ErrReferenceNotFound, formName)
	}
	return strings.Join(parts, "\n\n"), nil
}
