package backend

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserKeyAliasOrder(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want string
	}{
		{"userid wins over everything", Record{"userid": "a", "userId": "b", "contactId": "c", "contactid": "d", "uid": "e", "id": "f"}, "a"},
		{"userId", Record{"userId": "b", "contactId": "c", "contactid": "d", "uid": "e", "id": "f"}, "b"},
		{"contactId", Record{"contactId": "c", "contactid": "d", "uid": "e", "id": "f"}, "c"},
		{"contactid", Record{"contactid": "d", "uid": "e", "id": "f"}, "d"},
		{"uid", Record{"uid": "e", "id": "f"}, "e"},
		{"id", Record{"id": "f"}, "f"},
		{"null is skipped", Record{"userid": nil, "id": "f"}, "f"},
		{"empty is skipped", Record{"userid": "", "userId": "  ", "uid": "e"}, "e"},
		{"numeric id", Record{"id": json.Number("12345678901234567")}, "12345678901234567"},
		{"nothing", Record{"name": "x"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserKey(tt.rec))
		})
	}
}

func TestDocumentAndThreadKeys(t *testing.T) {
	assert.Equal(t, "m1", DocumentKey(Record{"_id": "m1", "id": "x"}))
	assert.Equal(t, "x", DocumentKey(Record{"id": "x", "documentId": "y"}))
	assert.Equal(t, "y", DocumentKey(Record{"documentId": "y"}))

	assert.Equal(t, "t1", ThreadKey(Record{"threadId": "t1", "_id": "m"}))
	assert.Equal(t, "t2", ThreadKey(Record{"chatThreadId": "t2", "id": "i"}))
	assert.Equal(t, "m", ThreadKey(Record{"_id": "m", "id": "i"}))
}
