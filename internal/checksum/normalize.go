package checksum

import (
	"strings"
	"unicode"
)

// Normalize strips comments, lowercases unquoted text and collapses whitespace.
func Normalize(sql string) string {
	var out strings.Builder
	out.Grow(len(sql))

	pendingSpace := false
	emit := func(s string, quoted bool) {
		for _, r := range s {
			if !quoted && unicode.IsSpace(r) {
				pendingSpace = out.Len() > 0
				continue
			}
			if pendingSpace {
				out.WriteByte(' ')
				pendingSpace = false
			}
			if !quoted {
				r = unicode.ToLower(r)
			}
			out.WriteRune(r)
		}
	}

	for _, tok := range tokenize(sql) {
		switch tok.kind {
		case tokComment:
			pendingSpace = out.Len() > 0
		case tokQuoted:
			emit(tok.text, true)
		default:
			emit(tok.text, false)
		}
	}

	return out.String()
}

type tokenKind int

const (
	tokText tokenKind = iota
	tokComment
	tokQuoted
)

type token struct {
	kind tokenKind
	text string
}

// tokenize splits SQL into plain text, comments and quoted runs. String
// literals and quoted identifiers honour doubled-quote escapes. Dollar quotes
// match their opening tag and block comments nest. Unterminated constructs run
// to the end of input.
func tokenize(s string) []token {
	var toks []token
	start := 0
	flush := func(end int) {
		if end > start {
			toks = append(toks, token{kind: tokText, text: s[start:end]})
		}
	}

	for i := 0; i < len(s); {
		switch {
		case strings.HasPrefix(s[i:], "--"):
			flush(i)
			end := strings.IndexByte(s[i:], '\n')
			if end < 0 {
				end = len(s) - i
			}
			toks = append(toks, token{kind: tokComment, text: s[i : i+end]})
			i += end
			start = i

		case strings.HasPrefix(s[i:], "/*"):
			flush(i)
			end := blockCommentEnd(s, i)
			toks = append(toks, token{kind: tokComment, text: s[i:end]})
			i = end
			start = i

		case s[i] == '\'' || s[i] == '"':
			flush(i)
			end := quoteEnd(s, i)
			toks = append(toks, token{kind: tokQuoted, text: s[i:end]})
			i = end
			start = i

		case s[i] == '$':
			tag := dollarTag(s, i)
			if tag == "" {
				i++
				continue
			}
			flush(i)
			end := len(s)
			if j := strings.Index(s[i+len(tag):], tag); j >= 0 {
				end = i + len(tag) + j + len(tag)
			}
			toks = append(toks, token{kind: tokQuoted, text: s[i:end]})
			i = end
			start = i

		default:
			i++
		}
	}
	flush(len(s))

	return toks
}

func blockCommentEnd(s string, i int) int {
	depth := 0
	for i < len(s) {
		switch {
		case strings.HasPrefix(s[i:], "/*"):
			depth++
			i += 2
		case strings.HasPrefix(s[i:], "*/"):
			depth--
			i += 2
			if depth == 0 {
				return i
			}
		default:
			i++
		}
	}
	return len(s)
}

// quoteEnd returns the offset just past the quoted run opened by s[i].
func quoteEnd(s string, i int) int {
	q := s[i]
	for i++; i < len(s); i++ {
		if s[i] != q {
			continue
		}
		if i+1 < len(s) && s[i+1] == q {
			i++
			continue
		}
		return i + 1
	}
	return len(s)
}

// dollarTag returns the "$tag$" opening at i, or "" when i does not start one.
func dollarTag(s string, i int) string {
	for j := i + 1; j < len(s); j++ {
		c := s[j]
		switch {
		case c == '$':
			return s[i : j+1]
		case c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
		case c >= '0' && c <= '9' && j > i+1:
		default:
			return ""
		}
	}
	return ""
}
