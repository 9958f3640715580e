package internal

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// SuggestTags returns up to maxSuggestions registered tag names close to
// target. Names containing target as a subsequence ("endcomp" ->
// "endcompose") come first in fuzzy score order, then misspellings within
// a few edits ("slto" -> "slot"), closest first.
func SuggestTags(target string, candidates []string, maxSuggestions int) []string {
	if target == StringValueEmpty || len(candidates) == 0 || maxSuggestions <= 0 {
		return nil
	}

	result := make([]string, 0, maxSuggestions)
	matched := make(map[int]struct{})
	for _, m := range fuzzy.Find(target, candidates) {
		matched[m.Index] = struct{}{}
		if len(result) < maxSuggestions {
			result = append(result, m.Str)
		}
	}
	if len(result) == maxSuggestions {
		return result
	}

	type typo struct {
		name  string
		edits int
	}
	limit := max(1, len([]rune(target))/3)
	lowered := strings.ToLower(target)
	var typos []typo
	for i, c := range candidates {
		if _, ok := matched[i]; ok {
			continue
		}
		if d := editDistance(lowered, strings.ToLower(c)); d <= limit {
			typos = append(typos, typo{name: c, edits: d})
		}
	}
	sort.SliceStable(typos, func(i, j int) bool { return typos[i].edits < typos[j].edits })

	for _, t := range typos {
		if len(result) == maxSuggestions {
			break
		}
		result = append(result, t.name)
	}
	return result
}

// editDistance counts insertions, deletions, substitutions and swaps of
// adjacent runes needed to turn a into b.
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	d := make([][]int, len(ra)+1)
	for i := range d {
		d[i] = make([]int, len(rb)+1)
		d[i][0] = i
	}
	for j := range d[0] {
		d[0][j] = j
	}

	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			d[i][j] = min(d[i-1][j]+1, d[i][j-1]+1, d[i-1][j-1]+cost)
			if i > 1 && j > 1 && ra[i-1] == rb[j-2] && ra[i-2] == rb[j-1] {
				d[i][j] = min(d[i][j], d[i-2][j-2]+1)
			}
		}
	}
	return d[len(ra)][len(rb)]
}
