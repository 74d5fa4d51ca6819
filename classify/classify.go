// Package classify decides what a user utterance means: plain chat, a
// directed tool invocation, or a tool invocation that is missing required
// parameters.
//
// Classification is a pure function of (text, tool snapshot); it has no side
// effects and can safely run more than once for the same input. The tool
// snapshot is passed in per call rather than read from shared state, so the
// caller controls exactly which registry version a turn sees.
package classify

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"tooldeck/model"
)

// Kind tags the classification outcome.
type Kind int

const (
	KindChat Kind = iota
	KindTool
	KindParameterRequest
)

// Result is the outcome of classifying one utterance.
type Result struct {
	Kind       Kind
	ToolID     string
	ToolName   string
	Parameters map[string]string // Values extracted from the utterance
	Missing    []model.ToolParam // Required fields still unfilled (parameter_request only)
}

// Extractor fills a tool's declared parameter schema from an utterance.
// Implementations must be pure: same text and schema, same result.
type Extractor interface {
	Extract(text string, schema []model.ToolParam) (map[string]string, []model.ToolParam)
}

// Classifier matches utterances against tool activation phrases.
type Classifier struct {
	extractor Extractor

	// Fuzzy matches below this score are ignored. sahilm/fuzzy scores grow
	// with adjacency, so short accidental subsequences stay under it.
	minFuzzyScore int
}

// New creates a classifier with the given extractor. A nil extractor falls
// back to KeywordExtractor.
func New(extractor Extractor) *Classifier {
	if extractor == nil {
		extractor = KeywordExtractor{}
	}
	return &Classifier{
		extractor:     extractor,
		minFuzzyScore: 20,
	}
}

// Classify decides whether text is chat, a complete tool call, or a tool
// call missing required parameters. First match wins; ties between
// activation phrases are broken by the longest (most specific) phrase.
func (c *Classifier) Classify(text string, tools []model.Tool) Result {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Result{Kind: KindChat}
	}

	tool, matched := c.matchTool(trimmed, tools)
	if !matched {
		return Result{Kind: KindChat}
	}

	values, missing := c.extractor.Extract(trimmed, tool.Schema)
	if len(missing) > 0 {
		return Result{
			Kind:       KindParameterRequest,
			ToolID:     tool.ID,
			ToolName:   tool.Name,
			Parameters: values,
			Missing:    missing,
		}
	}

	return Result{
		Kind:       KindTool,
		ToolID:     tool.ID,
		ToolName:   tool.Name,
		Parameters: values,
	}
}

// matchTool finds the tool whose activation phrase (or name) best matches
// the utterance. Exact containment beats fuzzy matching.
func (c *Classifier) matchTool(text string, tools []model.Tool) (model.Tool, bool) {
	lower := strings.ToLower(text)

	var (
		best       model.Tool
		bestLen    int
		foundExact bool
	)
	for _, tool := range tools {
		for _, phrase := range activationPhrases(tool) {
			if len(phrase) > bestLen && strings.Contains(lower, phrase) {
				best = tool
				bestLen = len(phrase)
				foundExact = true
			}
		}
	}
	if foundExact {
		return best, true
	}

	return c.fuzzyMatch(lower, tools)
}

// fuzzyMatch tolerates typos in the utterance ("sumarize this" still
// triggers a "summarize" tool). Each utterance word is matched as a pattern
// against every activation phrase; the highest-scoring phrase above the
// score gate wins, ties going to the longest phrase.
func (c *Classifier) fuzzyMatch(lower string, tools []model.Tool) (model.Tool, bool) {
	words := usableWords(lower)
	if len(words) == 0 {
		return model.Tool{}, false
	}

	var (
		best      model.Tool
		bestScore = c.minFuzzyScore - 1
		bestLen   int
		found     bool
	)
	for _, tool := range tools {
		phrases := activationPhrases(tool)
		for _, word := range words {
			for _, m := range fuzzy.Find(word, phrases) {
				phrase := phrases[m.Index]
				if m.Score > bestScore || (m.Score == bestScore && len(phrase) > bestLen) {
					best = tool
					bestScore = m.Score
					bestLen = len(phrase)
					found = true
				}
			}
		}
	}
	return best, found
}

// usableWords returns the utterance's words that are long enough to carry a
// fuzzy signal. Very short words match almost anything.
func usableWords(lower string) []string {
	var words []string
	for _, w := range strings.Fields(lower) {
		w = strings.Trim(w, `,.;:!?"'`)
		if len(w) >= 4 {
			words = append(words, w)
		}
	}
	return words
}

func activationPhrases(tool model.Tool) []string {
	phrases := make([]string, 0, len(tool.Activations)+1)
	for _, a := range tool.Activations {
		if a = strings.ToLower(strings.TrimSpace(a)); a != "" {
			phrases = append(phrases, a)
		}
	}
	if name := strings.ToLower(strings.TrimSpace(tool.Name)); name != "" {
		phrases = append(phrases, name)
	}
	return phrases
}
