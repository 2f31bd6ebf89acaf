// Package naming converts identifiers between the snake, camel and pascal
// forms used by schema documents, SQL output and generated Go code.
package naming

import (
	"strings"
	"unicode"
)

// acronyms are kept upper-cased when converting to pascal or camel case.
var acronyms = map[string]bool{
	"ACL": true, "API": true, "ASCII": true, "AWS": true, "CPU": true, "CSS": true,
	"DNS": true, "EOF": true, "GUID": true, "HTML": true, "HTTP": true, "HTTPS": true,
	"ID": true, "IP": true, "JSON": true, "QPS": true, "RAM": true, "RPC": true,
	"SKU": true, "SLA": true, "SMTP": true, "SQL": true, "SSH": true, "TCP": true,
	"TLS": true, "TTL": true, "UDP": true, "UI": true, "UID": true, "URI": true,
	"URL": true, "UTF8": true, "UUID": true, "VM": true, "XML": true, "XSS": true,
}

// Snake converts an identifier to snake_case. Runs of capitals are treated as
// one word, so "HTTPCode" becomes "http_code" and "UserIDs" becomes "user_ids".
func Snake(s string) string {
	var (
		j int
		b strings.Builder
	)
	b.Grow(len(s) + 4)
	for i := 0; i < len(s); i++ {
		r := rune(s[i])
		if r == '-' || r == ' ' {
			r = '_'
		}
		// Put '_' at a word boundary: lower→upper ("userInfo"), or the last
		// capital of an acronym run followed by a lower letter ("HTTPCode").
		if i > 0 && i < len(s)-1 && unicode.IsUpper(r) {
			prev, next := rune(s[i-1]), rune(s[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) ||
				j != i-1 && unicode.IsLower(next) && unicode.IsLetter(prev) {
				j = i
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// Pascal converts an identifier to PascalCase, upper-casing known acronyms.
//
//	user_info => UserInfo
//	user_id   => UserID
//	Book      => Book
func Pascal(s string) string {
	words := strings.Split(Snake(s), "_")
	var b strings.Builder
	for _, w := range words {
		b.WriteString(pascalWord(w))
	}
	return b.String()
}

// Camel converts an identifier to camelCase. The first word is lower-cased,
// including a leading acronym.
//
//	user_info => userInfo
//	http_code => httpCode
//	Book      => book
func Camel(s string) string {
	words := strings.Split(Snake(s), "_")
	var b strings.Builder
	for i, w := range words {
		if i == 0 {
			b.WriteString(w)
			continue
		}
		b.WriteString(pascalWord(w))
	}
	return b.String()
}

// LowerFirst lower-cases the first letter of s.
func LowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// UpperFirst upper-cases the first letter of s.
func UpperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Receiver returns a short receiver name for a type name ("BookQuery" => "bq").
func Receiver(s string) string {
	var b strings.Builder
	for i, r := range s {
		if i == 0 || unicode.IsUpper(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	name := b.String()
	switch name {
	case "", "go", "if", "for", "var", "func", "type", "map", "chan", "case", "default", "range":
		return "_" + name
	}
	return name
}

func pascalWord(w string) string {
	if w == "" {
		return ""
	}
	if upper := strings.ToUpper(w); acronyms[upper] {
		return upper
	}
	return strings.ToUpper(w[:1]) + w[1:]
}
