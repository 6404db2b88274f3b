// Package textmatch scores how close a free-form answer is to a reference
// answer. The measure is the classic longest-contiguous-matching-block
// ratio: matching blocks are found recursively and the ratio is
// 2*M / (len(a)+len(b)) where M is the total matched length.
package textmatch

type block struct {
	aStart, bStart, size int
}

// Ratio returns a similarity score in [0,1] between two strings,
// compared rune-wise. Two empty strings are fully similar.
func Ratio(a, b string) float64 {
	ar := []rune(a)
	br := []rune(b)

	total := len(ar) + len(br)
	if total == 0 {
		return 1
	}

	matched := 0
	for _, bl := range matchingBlocks(ar, br) {
		matched += bl.size
	}
	return 2 * float64(matched) / float64(total)
}

// Percent returns Ratio scaled to [0,100].
func Percent(a, b string) float64 {
	return Ratio(a, b) * 100
}

// matchingBlocks finds all matching blocks by recursively splitting
// around the longest match, queue-based to avoid deep recursion.
func matchingBlocks(a, b []rune) []block {
	type span struct {
		aLo, aHi, bLo, bHi int
	}

	queue := []span{{0, len(a), 0, len(b)}}
	var blocks []block

	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		m := longestMatch(a, b, s.aLo, s.aHi, s.bLo, s.bHi)
		if m.size == 0 {
			continue
		}
		blocks = append(blocks, m)

		if s.aLo < m.aStart && s.bLo < m.bStart {
			queue = append(queue, span{s.aLo, m.aStart, s.bLo, m.bStart})
		}
		if m.aStart+m.size < s.aHi && m.bStart+m.size < s.bHi {
			queue = append(queue, span{m.aStart + m.size, s.aHi, m.bStart + m.size, s.bHi})
		}
	}
	return blocks
}

// longestMatch finds the longest block where a[aStart:aStart+size] equals
// b[bStart:bStart+size] within the given window. Among equally long
// matches the earliest in a, then in b, wins.
func longestMatch(a, b []rune, aLo, aHi, bLo, bHi int) block {
	// b2j: rune → positions in b window
	b2j := make(map[rune][]int, bHi-bLo)
	for j := bLo; j < bHi; j++ {
		b2j[b[j]] = append(b2j[b[j]], j)
	}

	best := block{aStart: aLo, bStart: bLo, size: 0}
	// j2len[j] = length of match ending at a[i-1], b[j-1]
	j2len := make(map[int]int)

	for i := aLo; i < aHi; i++ {
		newJ2len := make(map[int]int)
		for _, j := range b2j[a[i]] {
			k := j2len[j-1] + 1
			newJ2len[j] = k
			if k > best.size {
				best = block{aStart: i - k + 1, bStart: j - k + 1, size: k}
			}
		}
		j2len = newJ2len
	}
	return best
}
