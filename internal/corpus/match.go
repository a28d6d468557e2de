package corpus

import (
	"path/filepath"
	"strings"

	"github.com/Hollywood0805/Validation-engine-Backend/internal/forms"
	"github.com/Hollywood0805/Validation-engine-Backend/internal/types"
)

// FindCandidates returns the paths of rule files whose normalized stem and the
// normalized form name contain one another.
//
// The containment test is a recall-favoring pre-filter: stems may be partial
// or pluralized variants of the canonical form ("AdverseEventLog" vs
// "AdverseEvent"). Exact matching happens later on the form condition inside
// each block. Order follows the index; duplicates across categories are kept.
// Existence is not checked here.
func FindCandidates(formName string, index *types.CorpusIndex) []string {
	target := forms.Normalize(formName)
	if target == "" || index == nil {
		return nil
	}

	var paths []string
	for _, cat := range index.Categories {
		for _, f := range cat.Files {
			// A stem that normalizes to "" is contained in every target
			stem := forms.Normalize(f.Stem)
			if strings.Contains(target, stem) || strings.Contains(stem, target) {
				paths = append(paths, filepath.Join(index.Root, cat.Name, f.FileName()))
			}
		}
	}
	return paths
}
