package extractor

import "unicode"

// CountWords counts whitespace or punctuation separated words. Han, kana and
// hangul characters count as one word each, since those scripts do not
// separate words with spaces.
func CountWords(s string) int {
	n := 0
	inWord := false
	for _, r := range s {
		switch {
		case isCJK(r):
			n++
			inWord = false
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r):
			if !inWord {
				n++
				inWord = true
			}
		case inWord && (r == '\'' || r == '-' || r == '_'):
			// joiners inside a word: don't, co-op, snake_case
		default:
			inWord = false
		}
	}
	return n
}

func isCJK(r rune) bool {
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul)
}
