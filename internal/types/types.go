// Package types provides domain models shared across editcheck components.
//
// Everything here is transient: a corpus index, the rule blocks parsed out of
// it and the matches for one submission are rebuilt for every request. The
// rule corpus on disk stays the single source of truth.
package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// UnnamedRule is reported when a rule block carries no usable quoted name.
const UnnamedRule = "Unnamed Rule"

// Submission is one clinical form instance awaiting validation.
// Fields values keep their JSON shape (float64, string, bool, nil, nested maps).
type Submission struct {
	Form           string         `json:"form"`
	RecordPosition int            `json:"recordPosition"`
	Fields         map[string]any `json:"fields"`
}

// DecodeSubmission parses a JSON document into a Submission.
// Unknown top-level keys are ignored; a missing fields object yields an empty map.
func DecodeSubmission(data []byte) (*Submission, error) {
	var sub Submission
	if err := json.Unmarshal(data, &sub); err != nil {
		return nil, fmt.Errorf("invalid submission: %w", err)
	}
	if sub.Fields == nil {
		sub.Fields = map[string]any{}
	}
	return &sub, nil
}

// RuleFileRef is one rule-text file found inside a category folder.
type RuleFileRef struct {
	Stem string // file name without extension
	Ext  string // extension including the dot, e.g. ".txt"
}

// FileName returns the on-disk file name.
func (r RuleFileRef) FileName() string {
	return r.Stem + r.Ext
}

// CategoryIndex lists the rule files of one category folder.
type CategoryIndex struct {
	Name  string
	Files []RuleFileRef
}

// CorpusIndex maps categories to rule file stems as seen at build time.
// Categories and files are sorted so iteration order is deterministic.
type CorpusIndex struct {
	Root       string
	Categories []CategoryIndex
}

// Stems returns the file stems of a category, or nil when the category is unknown.
func (c *CorpusIndex) Stems(category string) []string {
	for _, cat := range c.Categories {
		if cat.Name != category {
			continue
		}
		stems := make([]string, 0, len(cat.Files))
		for _, f := range cat.Files {
			stems = append(stems, f.Stem)
		}
		return stems
	}
	return nil
}

// RuleBlock is one `rule "<name>" { ... }` section of a rule file.
type RuleBlock struct {
	Name           string   // text of the first quoted string after `rule`
	FormConditions []string // every `form == "<value>"` value, in order of appearance
	Category       string   // category of the file the block came from
	RawText        string   // the full block, keyword through closing brace
	Body           string   // text between the outer braces
}

// FormCondition returns the first declared form condition.
// ok is false for blocks that cannot be exactly matched by any submission.
func (b RuleBlock) FormCondition() (form string, ok bool) {
	if len(b.FormConditions) == 0 {
		return "", false
	}
	return b.FormConditions[0], true
}

// DisplayName returns the block name or UnnamedRule when it is blank.
func (b RuleBlock) DisplayName() string {
	if strings.TrimSpace(b.Name) == "" {
		return UnnamedRule
	}
	return b.Name
}

// MatchedRule is a rule block confirmed applicable to a submission.
type MatchedRule struct {
	Block    RuleBlock
	Category string
	Path     string
}

// VerdictStatus is the outcome of checking one rule against a submission.
type VerdictStatus string

const (
	StatusPass          VerdictStatus = "PASS"
	StatusFail          VerdictStatus = "FAIL"
	StatusNotApplicable VerdictStatus = "NOT_APPLICABLE"
)

// RuleVerdict is the per-rule line of a validation report.
type RuleVerdict struct {
	RuleName string        `json:"rule" yaml:"rule"`
	Category string        `json:"folder" yaml:"folder"`
	Status   VerdictStatus `json:"status" yaml:"status"`
	Reason   string        `json:"reason" yaml:"reason"`
}

// Report aggregates the verdicts of every matched rule for one submission.
type Report struct {
	ReportID       ReportID      `json:"report_id" yaml:"report_id"`
	Form           string        `json:"form" yaml:"form"`
	NormalizedForm string        `json:"normalized_form" yaml:"normalized_form"`
	Verdicts       []RuleVerdict `json:"verdicts" yaml:"verdicts"`
	GeneratedAt    time.Time     `json:"generated_at" yaml:"generated_at"`
}

// Counts tallies verdicts by status.
func (r *Report) Counts() map[VerdictStatus]int {
	counts := map[VerdictStatus]int{
		StatusPass:          0,
		StatusFail:          0,
		StatusNotApplicable: 0,
	}
	for _, v := range r.Verdicts {
		counts[v.Status]++
	}
	return counts
}
