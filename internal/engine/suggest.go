package engine

import (
	"fmt"
	"regexp"
	"sort"
)

// Suggestion is one ranked category proposal for a merchant.
type Suggestion struct {
	CategoryID   int64
	CategoryName string
	CategoryPath string
	Confidence   float64
	Reason       string
	MatchCount   int
}

// ruleConfidence is the fixed score for an import-rule match; rules are
// explicit user intent and outrank any historical tally.
const ruleConfidence = 0.9

// SuggestCategory proposes categories for a merchant name, merging two
// sources: import rules whose pattern matches the name (via the category
// legs of their linked templates), and a bounded most-recent-first sample
// of transactions whose title contains the name. A category already
// produced by a rule is not duplicated by history. Results are sorted by
// confidence descending.
func (e *Engine) SuggestCategory(merchant string) ([]Suggestion, error) {
	var suggestions []Suggestion
	seen := make(map[int64]bool)

	rules, err := e.store.ImportRules()
	if err != nil {
		return nil, fmt.Errorf("loading import rules: %w", err)
	}
	for _, rule := range rules {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			continue // a malformed stored pattern never blocks suggestions
		}
		if !re.MatchString(merchant) {
			continue
		}
		legs, err := e.store.TemplateLineItems(rule.TemplateID)
		if err != nil {
			return nil, err
		}
		for _, leg := range legs {
			if leg.AccountID == nil || seen[*leg.AccountID] {
				continue
			}
			acct, err := e.store.Account(*leg.AccountID)
			if err != nil {
				return nil, err
			}
			if acct == nil || !acct.Kind.IsCategory() {
				continue
			}
			seen[acct.ID] = true
			suggestions = append(suggestions, Suggestion{
				CategoryID:   acct.ID,
				CategoryName: acct.Name,
				CategoryPath: acct.PathName,
				Confidence:   ruleConfidence,
				Reason:       fmt.Sprintf("matches rule pattern %q", rule.Pattern),
			})
		}
	}

	historical, err := e.suggestFromHistory(merchant, seen)
	if err != nil {
		return nil, err
	}
	suggestions = append(suggestions, historical...)

	sort.SliceStable(suggestions, func(i, j int) bool {
		if suggestions[i].Confidence != suggestions[j].Confidence {
			return suggestions[i].Confidence > suggestions[j].Confidence
		}
		if suggestions[i].MatchCount != suggestions[j].MatchCount {
			return suggestions[i].MatchCount > suggestions[j].MatchCount
		}
		return suggestions[i].CategoryName < suggestions[j].CategoryName
	})
	return suggestions, nil
}

// suggestFromHistory tallies category usage across recent transactions
// whose title contains the merchant name. Confidence grows with the share
// of matches using the category, capped below any rule match.
func (e *Engine) suggestFromHistory(merchant string, seen map[int64]bool) ([]Suggestion, error) {
	matches, err := e.store.SearchTransactions(merchant, e.sampleLimit)
	if err != nil {
		return nil, fmt.Errorf("searching transactions: %w", err)
	}
	if len(matches) == 0 {
		return nil, nil
	}

	counts := make(map[int64]int)
	names := make(map[int64]*Suggestion)
	for _, txn := range matches {
		sp, err := partitionLineItems(e.store, txn.ID)
		if err != nil {
			return nil, err
		}
		if sp.categoryAcct == nil {
			continue
		}
		counts[sp.categoryAcct.ID]++
		if _, ok := names[sp.categoryAcct.ID]; !ok {
			names[sp.categoryAcct.ID] = &Suggestion{
				CategoryID:   sp.categoryAcct.ID,
				CategoryName: sp.categoryAcct.Name,
				CategoryPath: sp.categoryAcct.PathName,
			}
		}
	}

	total := len(matches)
	var out []Suggestion
	for id, count := range counts {
		if seen[id] {
			continue
		}
		s := *names[id]
		s.Confidence = float64(count)/float64(total)*0.8 + 0.3
		if s.Confidence > 0.8 {
			s.Confidence = 0.8
		}
		s.MatchCount = count
		s.Reason = fmt.Sprintf("used in %d of %d similar transactions", count, total)
		out = append(out, s)
	}
	return out, nil
}
