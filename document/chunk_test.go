// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitChunks(t *testing.T) {
	t.Run("EmptyText", func(t *testing.T) {
		assert.Nil(t, SplitChunks("", 1000, 200))
		assert.Nil(t, SplitChunks("   \n  ", 1000, 200))
	})

	t.Run("ShortTextSingleChunk", func(t *testing.T) {
		chunks := SplitChunks("a short abstract", 1000, 200)
		assert.Equal(t, []string{"a short abstract"}, chunks)
	})

	t.Run("ChunkSizeBound", func(t *testing.T) {
		text := strings.Repeat("x", 2500)
		chunks := SplitChunks(text, 1000, 200)

		for _, chunk := range chunks {
			assert.LessOrEqual(t, len([]rune(chunk)), 1000)
		}
	})

	t.Run("OverlapSharedBetweenNeighbours", func(t *testing.T) {
		// Distinct runes so overlap is verifiable by content.
		var sb strings.Builder
		for i := 0; i < 2000; i++ {
			sb.WriteRune(rune('ക' + i%500))
		}
		chunks := SplitChunks(sb.String(), 1000, 200)
		assert.True(t, len(chunks) >= 2)

		first := []rune(chunks[0])
		second := []rune(chunks[1])
		assert.Equal(t, string(first[len(first)-200:]), string(second[:200]))
	})

	t.Run("CoversWholeText", func(t *testing.T) {
		text := strings.Repeat("abcde ", 400)
		chunks := SplitChunks(text, 1000, 200)

		last := chunks[len(chunks)-1]
		assert.True(t, strings.HasSuffix(strings.TrimSpace(text), last))
	})

	t.Run("DegenerateOverlapIgnored", func(t *testing.T) {
		text := strings.Repeat("y", 30)
		chunks := SplitChunks(text, 10, 10)

		// Overlap >= size would never advance; it falls back to zero.
		assert.Len(t, chunks, 3)
	})
}
