package main

// estimateTokens approximates a cl100k_base token count: structural
// punctuation is one token each, words and numbers about four
// characters per token, whitespace merges with its neighbours.
func estimateTokens(s string) int {
	if len(s) == 0 {
		return 0
	}

	tokens := 0
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case isPunctuation(c):
			tokens++
			i++
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case isDigit(c):
			n := 0
			for i < len(s) && isNumberChar(s[i]) {
				n++
				i++
			}
			tokens += (n + 3) / 4
		case isAlpha(c) || c == '_':
			n := 0
			for i < len(s) && (isAlpha(s[i]) || isDigit(s[i]) || s[i] == '_') {
				n++
				i++
			}
			tokens += (n + 3) / 4
		default:
			tokens++
			i++
		}
	}
	return max(1, tokens)
}

func isPunctuation(c byte) bool {
	switch c {
	case '{', '}', '[', ']', '(', ')', ':', ',', '"', '\'', '=', '@', '.', ';', '!', '?', '|', '#':
		return true
	}
	return false
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlpha(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

func isNumberChar(c byte) bool {
	return isDigit(c) || c == '.' || c == '-' || c == '+' || c == 'e' || c == 'E'
}
