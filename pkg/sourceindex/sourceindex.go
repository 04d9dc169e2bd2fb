// Package sourceindex builds the line-offset table and byte↔char converter a file needs once,
// shared by the analysis pass and every rule that reports a line number (spec.md §4.1, C1).
package sourceindex

import (
	"sort"
	"unicode/utf8"
)

// Index maps UTF-8 byte offsets within a file's module source to 1-based line numbers.
//
// Parser spans are reported in UTF-8 bytes; source text may be logically indexed in UTF-16 code
// units by parsers written against other host languages. Go strings are natively UTF-8, so a
// rune's byte width (utf8.RuneLen) is already the same width spec.md §9 describes surrogate-pair
// detection producing for code points outside the Basic Multilingual Plane: 4 bytes. The explicit
// byte-accumulating walk below is kept instead of a shortcut through utf8.RuneCountInString
// because it tolerates a byte offset that does not land on a rune boundary (e.g. a parser bug, or
// a span computed against slightly different source bytes) by clamping rather than panicking.
type Index struct {
	moduleStart uint32
	lineOffsets []uint32
}

// Build scans source once, recording the char index of the first code unit of every line
// starting from moduleStart. lineOffsets[0] is always 0.
func Build(source string, moduleStart uint32) *Index {
	idx := &Index{
		moduleStart: moduleStart,
		lineOffsets: []uint32{0},
	}

	body := sliceFromByte(source, moduleStart)
	charIndex := uint32(0)
	for _, r := range body {
		if r == '\n' {
			idx.lineOffsets = append(idx.lineOffsets, charIndex+1)
		}
		charIndex++
	}
	return idx
}

func sliceFromByte(source string, byteOffset uint32) string {
	if int(byteOffset) >= len(source) {
		return ""
	}
	return source[byteOffset:]
}

// LineOfByte converts a module-relative UTF-8 byte offset to a 1-based line number. Offsets below
// moduleStart clamp to moduleStart (line 1).
func (idx *Index) LineOfByte(source string, byteOffset uint32) int {
	if idx == nil || len(idx.lineOffsets) == 0 {
		return 1
	}

	relative := int64(byteOffset) - int64(idx.moduleStart)
	if relative < 0 {
		relative = 0
	}

	charIndex := idx.charIndexForByte(source, uint32(relative))
	return idx.lineForCharIndex(charIndex)
}

// charIndexForByte walks the module body accumulating each rune's UTF-8 byte width, stopping once
// the running total would exceed target, and returns the count of runes consumed.
func (idx *Index) charIndexForByte(source string, target uint32) uint32 {
	body := sliceFromByte(source, idx.moduleStart)

	var byteTotal uint32
	var charIndex uint32
	for i := range body {
		_, size := utf8.DecodeRuneInString(body[i:])
		width := uint32(size) // an invalid byte decodes with size 1, so it counts as a single byte
		if byteTotal+width > target {
			break
		}
		byteTotal += width
		charIndex++
	}
	return charIndex
}

// lineForCharIndex binary-searches lineOffsets for the largest offset <= charIndex.
func (idx *Index) lineForCharIndex(charIndex uint32) int {
	// pos is the count of offsets <= charIndex (lineOffsets[0] == 0 guarantees pos >= 1), which is
	// exactly the 1-based line number of the line containing charIndex.
	return sort.Search(len(idx.lineOffsets), func(i int) bool {
		return idx.lineOffsets[i] > charIndex
	})
}

// LineCount returns the number of lines recorded in the index.
func (idx *Index) LineCount() int {
	if idx == nil {
		return 0
	}
	return len(idx.lineOffsets)
}
