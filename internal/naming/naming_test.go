package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnake(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Username", "username"},
		{"FullName", "full_name"},
		{"HTTPCode", "http_code"},
		{"UserID", "user_id"},
		{"XMLParser", "xml_parser"},
		{"getHTTPResponse", "get_http_response"},
		{"already_snake", "already_snake"},
		{"dashed-name", "dashed_name"},
		{"A", "a"},
		{"ABC", "abc"},
		{"", ""},
		{"PHBOrg", "phb_org"},
		{"UserIDs", "user_ids"},
		{"BookArchive", "book_archive"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Snake(tt.input))
		})
	}
}

func TestPascal(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"user_info", "UserInfo"},
		{"user_id", "UserID"},
		{"http_code", "HTTPCode"},
		{"full-admin", "FullAdmin"},
		{"a_b", "AB"},
		{"api_url", "APIURL"},
		{"Book", "Book"},
		{"bookAuthor", "BookAuthor"},
		{"archived_at", "ArchivedAt"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Pascal(tt.input))
		})
	}
}

func TestCamel(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"user_info", "userInfo"},
		{"user_id", "userID"},
		{"http_code", "httpCode"},
		{"Book", "book"},
		{"BookAuthor", "bookAuthor"},
		{"archived_at", "archivedAt"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Camel(tt.input))
		})
	}
}

func TestReceiver(t *testing.T) {
	assert.Equal(t, "b", Receiver("Book"))
	assert.Equal(t, "bq", Receiver("BookQuery"))
	assert.Equal(t, "bar", Receiver("BookArchiveRepository"))
	assert.Equal(t, "_", Receiver(""))
}

func TestFirst(t *testing.T) {
	assert.Equal(t, "book", LowerFirst("Book"))
	assert.Equal(t, "Book", UpperFirst("book"))
	assert.Equal(t, "", LowerFirst(""))
}

func BenchmarkSnake(b *testing.B) {
	for b.Loop() {
		_ = Snake("getHTTPResponseForUserID")
	}
}
