package sqlite

import (
	"strings"
	"unicode"
)

// Search query operators. Only the upper-case spellings are operators,
// matching FTS5.
const (
	opAnd = "AND"
	opOr  = "OR"
	opNot = "NOT"
)

type queryToken struct {
	text   string
	op     bool // AND, OR or NOT
	phrase bool // came from "..."
	prefix bool // bare token ended in *
}

// toMatchExpr translates a user query into an FTS5 MATCH expression.
//
// Bare tokens are quoted, so punctuation such as "c++" or "foo-bar" cannot
// break the FTS5 grammar, and joined with OR unless the user placed AND, OR
// or NOT between them. Quoted phrases stay phrases. A bare token ending in
// * becomes a prefix query. AND and OR with nothing on one side are
// dropped. A NOT with no term before it would exclude from nothing, so such
// a query matches nothing. ok is false when the query matches nothing.
func toMatchExpr(query string) (expr string, ok bool) {
	var out []queryToken
	for _, t := range tokenizeQuery(query) {
		switch {
		case t.op:
			if len(out) == 0 {
				if t.text == opNot {
					return "", false
				}
				continue
			}
			if out[len(out)-1].op {
				out[len(out)-1] = t
				continue
			}
			out = append(out, t)
		default:
			if len(out) > 0 && !out[len(out)-1].op {
				out = append(out, queryToken{text: opOr, op: true})
			}
			out = append(out, t)
		}
	}
	for len(out) > 0 && out[len(out)-1].op {
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		return "", false
	}

	parts := make([]string, len(out))
	for i, t := range out {
		switch {
		case t.op:
			parts[i] = t.text
		case t.prefix:
			parts[i] = quoteTerm(t.text) + "*"
		default:
			parts[i] = quoteTerm(t.text)
		}
	}
	return strings.Join(parts, " "), true
}

// tokenizeQuery splits a query into bare tokens, phrases and operators.
// An unterminated quote runs to the end of the query.
func tokenizeQuery(query string) []queryToken {
	var tokens []queryToken
	rs := []rune(query)
	for i := 0; i < len(rs); {
		switch {
		case unicode.IsSpace(rs[i]):
			i++
		case rs[i] == '"':
			j := i + 1
			for j < len(rs) && rs[j] != '"' {
				j++
			}
			if text := strings.TrimSpace(string(rs[i+1 : j])); hasTokenChar(text) {
				tokens = append(tokens, queryToken{text: text, phrase: true})
			}
			i = j + 1
		default:
			j := i
			for j < len(rs) && !unicode.IsSpace(rs[j]) && rs[j] != '"' {
				j++
			}
			tokens = appendBare(tokens, string(rs[i:j]))
			i = j
		}
	}
	return tokens
}

func appendBare(tokens []queryToken, word string) []queryToken {
	switch word {
	case opAnd, opOr, opNot:
		return append(tokens, queryToken{text: word, op: true})
	}
	prefix := false
	if stem := strings.TrimRight(word, "*"); stem != word {
		word, prefix = stem, true
	}
	if !hasTokenChar(word) {
		return tokens
	}
	return append(tokens, queryToken{text: word, prefix: prefix})
}

// hasTokenChar reports whether s contains anything the FTS5 unicode61
// tokenizer would index. Terms made only of punctuation match nothing.
func hasTokenChar(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}) >= 0
}

// quoteTerm makes s an FTS5 string literal.
func quoteTerm(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
