package backend

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceByName(t *testing.T) {
	for name, want := range map[string]string{
		"drivers": "/users", "users": "/users",
		"Documents": "/documents", "chat-threads": "/chat-threads", "threads": "/chat-threads",
	} {
		r, err := ResourceByName(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, r.Path, name)
	}
	_, err := ResourceByName("trucks")
	assert.Error(t, err)
}

func TestDriverFrom(t *testing.T) {
	d := DriverFrom(Record{"uid": "u9", "firstName": "Ana", "lastName": "Lima", "isActive": false, "phone": "555"})
	assert.Equal(t, "u9", d.ID)
	assert.Equal(t, "Ana Lima", d.Name)
	assert.False(t, d.Active)
	assert.Equal(t, "555", d.Phone)

	assert.True(t, DriverFrom(Record{"id": "x"}).Active, "drivers are active unless told otherwise")
}

func TestDocumentFrom(t *testing.T) {
	doc := DocumentFrom(Record{
		"_id": "d1", "title": "Fuel receipt", "isSeen": true, "isFlagged": "false",
		"user":      map[string]any{"userId": "u1", "name": "Bo"},
		"createdAt": json.Number("1714557600000"),
	})
	assert.Equal(t, "d1", doc.ID)
	assert.True(t, doc.Seen)
	assert.False(t, doc.Flagged)
	assert.Equal(t, "u1", doc.DriverID)
	assert.Equal(t, "Bo", doc.DriverName)
	assert.Equal(t, int64(1714557600000), doc.CreatedAt.UnixMilli())
}

func TestThreadFrom(t *testing.T) {
	th := ThreadFrom(Record{"_id": "t1"})
	assert.Equal(t, "t1", th.Title)
	assert.False(t, th.Enriched)

	th = ThreadFrom(Record{"_id": "t1", FieldLastMessage: "", "user": map[string]any{"name": "Caio"}})
	assert.True(t, th.Enriched, "an empty derived value still counts as enriched")
	assert.Equal(t, "Caio", th.Title)
}
