package rules

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Hollywood0805/Validation-engine-Backend/internal/forms"
	"github.com/Hollywood0805/Validation-engine-Backend/internal/types"
)

// Resolver filters the blocks of candidate rule files down to those whose
// declared form equals the submission's form exactly after normalization.
// This is the precision gate behind the permissive file-name pre-filter.
type Resolver struct {
	logger *zap.Logger
}

// NewResolver creates a resolver. A nil logger discards output.
func NewResolver(logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{logger: logger}
}

// Resolve reads every candidate path that exists, extracts its rule blocks
// and keeps each block with a form condition equal to formName.
// Unreadable files are skipped as already-deleted sources. Discovery order
// is preserved and identical rules from different categories are all kept.
func (r *Resolver) Resolve(formName string, paths []string) []types.MatchedRule {
	target := forms.Normalize(formName)
	if target == "" {
		return nil
	}

	var matches []types.MatchedRule
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			r.logger.Debug("skipping unreadable rule file", zap.String("path", path), zap.Error(err))
			continue
		}

		category := filepath.Base(filepath.Dir(path))
		for _, block := range ExtractRuleBlocks(string(content)) {
			if !appliesTo(block, target) {
				continue
			}
			block.Category = category
			matches = append(matches, types.MatchedRule{
				Block:    block,
				Category: category,
				Path:     path,
			})
		}
	}
	return matches
}

// Resolve is Resolver.Resolve without logging.
func Resolve(formName string, paths []string) []types.MatchedRule {
	return NewResolver(nil).Resolve(formName, paths)
}

// appliesTo reports whether any form condition of block normalizes to target.
// Blocks without a form condition never apply.
func appliesTo(block types.RuleBlock, target string) bool {
	for _, cond := range block.FormConditions {
		if forms.Normalize(cond) == target {
			return true
		}
	}
	return false
}

// RuleNames derives the display name of every match, falling back to
// types.UnnamedRule for blocks without a usable name.
func RuleNames(matches []types.MatchedRule) []string {
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m.Block.DisplayName())
	}
	return names
}
