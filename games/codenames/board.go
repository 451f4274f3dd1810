/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package codenames

import (
	"math/rand/v2"
	"strings"
)

// Shuffler applies a random permutation to n elements through swap, with the
// same contract as rand.Shuffle.
type Shuffler func(n int, swap func(i, j int))

// DefaultShuffler is backed by the process-wide PRNG. No seeding guarantees
// are made.
func DefaultShuffler(n int, swap func(i, j int)) {
	rand.Shuffle(n, swap)
}

func colorDistribution() []Color {
	colors := make([]Color, 0, BoardSize)
	for range RedCards {
		colors = append(colors, Red)
	}
	for range BlueCards {
		colors = append(colors, Blue)
	}
	for range BlackCards {
		colors = append(colors, Black)
	}
	for range BeigeCards {
		colors = append(colors, Beige)
	}
	return colors
}

// NewBoard deals exactly BoardSize words onto a freshly shuffled colour
// distribution. The words are shuffled independently of the colours.
// Distinctness is the caller's business; see GenerateBoard.
func NewBoard(words []string, shuffle Shuffler) (Board, error) {
	if len(words) != BoardSize {
		return nil, newError(CodeInsufficientWords, "board needs exactly %d words, got %d", BoardSize, len(words))
	}
	if shuffle == nil {
		shuffle = DefaultShuffler
	}

	colors := colorDistribution()
	shuffle(len(colors), func(i, j int) {
		colors[i], colors[j] = colors[j], colors[i]
	})

	shuffled := append([]string(nil), words...)
	shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	board := make(Board, BoardSize)
	for i := range board {
		board[i] = Card{
			Word:  shuffled[i],
			Color: colors[i],
		}
	}
	return board, nil
}

// GenerateBoard picks BoardSize distinct words from pool and deals them.
// A pool with fewer distinct words fails with ErrInsufficientWords.
func GenerateBoard(pool []string, shuffle Shuffler) (Board, error) {
	unique := normalizeWords(pool)
	if len(unique) < BoardSize {
		return nil, newError(CodeInsufficientWords, "need %d distinct words, got %d", BoardSize, len(unique))
	}

	sel, err := SelectWords(unique, BoardSize, nil, shuffle)
	if err != nil {
		return nil, err
	}
	return NewBoard(sel.Words, shuffle)
}

// normalizeWords trims, drops blanks and removes duplicates, keeping the
// first occurrence of each word.
func normalizeWords(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}
