/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package codenames

import (
	"bufio"
	_ "embed"
	"slices"
	"strings"
)

// DefaultWords is the pool used when a room has no word bank. It holds
// exactly one board's worth of words, so exclusions never apply to it.
var DefaultWords = []string{
	"apple", "banana", "orange", "grape", "strawberry",
	"tiger", "lion", "elephant", "monkey", "rabbit",
	"airplane", "train", "car", "ship", "bicycle",
	"sun", "moon", "star", "cloud", "rain",
	"book", "pen", "table", "chair", "lamp",
}

//go:embed wordlists/default.txt
var defaultBankList string

// DefaultBankName names the large built-in bank that can be seeded into a
// word bank store.
const DefaultBankName = "Codenames large bank"

// DefaultBankWords returns the large built-in word list, one word per line
// in the embedded file; blank lines and # comments are skipped.
func DefaultBankWords() []string {
	var out []string
	sc := bufio.NewScanner(strings.NewReader(defaultBankList))
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, s)
	}
	return normalizeWords(out)
}

// Selection is the result of SelectWords.
type Selection struct {
	Words []string

	// ExclusionReset is set when every bank word had already been used, so
	// the selection ignored the exclusions. The room's used words should be
	// replaced rather than extended.
	ExclusionReset bool
}

// SelectWords picks count words from bank, preferring words not in excluded.
//
// When fewer than count unused words remain, all of them are taken and the
// rest is filled from the whole bank. A bank with fewer than count distinct
// words yields duplicates rather than an error; only an empty bank fails.
func SelectWords(bank []string, count int, excluded []string, shuffle Shuffler) (Selection, error) {
	if shuffle == nil {
		shuffle = DefaultShuffler
	}
	if count <= 0 {
		return Selection{Words: []string{}}, nil
	}

	pool := normalizeWords(bank)
	if len(pool) == 0 {
		return Selection{}, newError(CodeInsufficientWords, "word bank is empty")
	}

	skip := make(map[string]struct{}, len(excluded))
	for _, w := range excluded {
		skip[strings.TrimSpace(w)] = struct{}{}
	}

	filtered := make([]string, 0, len(pool))
	for _, w := range pool {
		if _, ok := skip[w]; !ok {
			filtered = append(filtered, w)
		}
	}

	switch {
	case len(filtered) >= count:
		return Selection{Words: sample(filtered, count, shuffle)}, nil

	case len(filtered) > 0:
		words := sample(filtered, len(filtered), shuffle)
		chosen := make(map[string]struct{}, len(words))
		for _, w := range words {
			chosen[w] = struct{}{}
		}
		rest := make([]string, 0, len(pool))
		for _, w := range pool {
			if _, ok := chosen[w]; !ok {
				rest = append(rest, w)
			}
		}
		words = append(words, sample(rest, min(count-len(words), len(rest)), shuffle)...)
		words = fillDuplicates(words, pool, count, shuffle)
		return Selection{Words: words}, nil

	default:
		n := min(count, len(pool))
		words := fillDuplicates(sample(pool, n, shuffle), pool, count, shuffle)
		return Selection{Words: words, ExclusionReset: true}, nil
	}
}

// sample returns n words drawn without replacement.
func sample(pool []string, n int, shuffle Shuffler) []string {
	out := append([]string(nil), pool...)
	shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out[:n]
}

// fillDuplicates tops words up to count by cycling through fresh
// permutations of pool. Only reachable with a pool smaller than count.
func fillDuplicates(words, pool []string, count int, shuffle Shuffler) []string {
	for len(words) < count {
		next := sample(pool, min(count-len(words), len(pool)), shuffle)
		words = append(words, next...)
	}
	return words
}

// MergeUsedWords unions selected into used, returning a sorted set. With
// reset the previous used words are discarded first.
func MergeUsedWords(used []string, sel Selection) []string {
	set := make(map[string]struct{}, len(used)+len(sel.Words))
	if !sel.ExclusionReset {
		for _, w := range used {
			set[w] = struct{}{}
		}
	}
	for _, w := range sel.Words {
		set[w] = struct{}{}
	}

	out := make([]string, 0, len(set))
	for w := range set {
		out = append(out, w)
	}
	slices.Sort(out)
	return out
}
