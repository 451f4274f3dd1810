/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package codenames

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noShuffle(int, func(i, j int)) {}

// reverseShuffle is deterministic but still moves every element.
func reverseShuffle(n int, swap func(i, j int)) {
	for i := 0; i < n/2; i++ {
		swap(i, n-1-i)
	}
}

func wordList(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%02d", prefix, i)
	}
	return out
}

func TestNewBoardColourDistribution(t *testing.T) {
	t.Parallel()

	for range 50 {
		board, err := NewBoard(wordList("w", BoardSize), DefaultShuffler)
		require.NoError(t, err)
		require.Len(t, board, BoardSize)

		assert.Equal(t, RedCards, board.Count(Red))
		assert.Equal(t, BlueCards, board.Count(Blue))
		assert.Equal(t, BlackCards, board.Count(Black))
		assert.Equal(t, BeigeCards, board.Count(Beige))

		for _, card := range board {
			assert.False(t, card.Revealed)
		}
		assert.ElementsMatch(t, wordList("w", BoardSize), board.Words())
	}
}

func TestNewBoardDeterministicShuffler(t *testing.T) {
	t.Parallel()

	words := wordList("w", BoardSize)
	board, err := NewBoard(words, noShuffle)
	require.NoError(t, err)

	assert.Equal(t, words, board.Words())
	assert.Equal(t, Red, board[0].Color)
	assert.Equal(t, Blue, board[RedCards].Color)
	assert.Equal(t, Black, board[RedCards+BlueCards].Color)
	assert.Equal(t, Beige, board[BoardSize-1].Color)

	// The caller's slice is never reordered.
	_, err = NewBoard(words, reverseShuffle)
	require.NoError(t, err)
	assert.Equal(t, wordList("w", BoardSize), words)
}

func TestNewBoardRequiresExactWordCount(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 24, 26} {
		_, err := NewBoard(wordList("w", n), noShuffle)
		assert.ErrorIs(t, err, ErrInsufficientWords, "n=%d", n)
	}
}

func TestGenerateBoard(t *testing.T) {
	t.Parallel()

	board, err := GenerateBoard(wordList("w", 40), DefaultShuffler)
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, w := range board.Words() {
		assert.False(t, seen[w], "duplicate word %q", w)
		seen[w] = true
	}

	pool := append(wordList("w", 24), "w00", "  ", "w01")
	_, err = GenerateBoard(pool, DefaultShuffler)
	assert.ErrorIs(t, err, ErrInsufficientWords)
}

func TestRoomIDs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ABC123", NormalizeRoomID("  abc123 "))
	assert.NoError(t, ValidateRoomID("ABC123"))

	for _, id := range []string{"", "ABC12", "ABC1234", "abc123", "ABC-12"} {
		assert.ErrorIs(t, ValidateRoomID(id), ErrInvalidRoomID, "id=%q", id)
	}

	for range 20 {
		id, err := NewRoomID()
		require.NoError(t, err)
		assert.NoError(t, ValidateRoomID(id))
		assert.NotContains(t, id, "0")
		assert.NotContains(t, id, "O")
	}
}

func TestErrorsMatchByCode(t *testing.T) {
	t.Parallel()

	err := newError(CodeWrongTurn, "it is %s's turn", BlueTeam)
	assert.ErrorIs(t, err, ErrWrongTurn)
	assert.NotErrorIs(t, err, ErrForbiddenRole)
	assert.Equal(t, CodeWrongTurn, CodeOf(fmt.Errorf("reveal: %w", err)))
	assert.Equal(t, Code(""), CodeOf(fmt.Errorf("plain")))

	cause := fmt.Errorf("bad json")
	wrapped := wrapError(CodeMalformedState, "decode", cause)
	assert.ErrorIs(t, wrapped, ErrMalformedState)
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, "decode: bad json", wrapped.Error())
}
