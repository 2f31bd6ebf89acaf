package schema

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/propel"
	model "github.com/syssam/propel/schema"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	db := bookstore(t)
	db.Entity("Book").AddBehavior(&model.BehaviorSpec{Name: "timestampable", Parameters: map[string]string{"disable_updated_at": "true"}})
	db.Entity("Book").Field("title").SetDefault("untitled")
	require.NoError(t, db.Entity("Book").AddIndex(&model.Index{Name: "book_isbn", Unique: true, Columns: []model.IndexColumn{{Name: "isbn", Size: 8}}}))

	first := NewSnapshot(db, nil)
	assert.Equal(t, uuid.Nil, first.Parent)
	second := NewSnapshot(db, first)
	assert.Equal(t, first.ID, second.Parent)

	var buf bytes.Buffer
	require.NoError(t, WriteSnapshot(&buf, second))
	got, err := ReadSnapshot(&buf)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
	assert.Equal(t, first.ID, got.Parent)
	assert.True(t, second.Created.Equal(got.Created))

	restored, err := got.Database()
	require.NoError(t, err)
	assert.True(t, CompareDatabases(db, restored).IsEmpty())

	book := restored.Entity("Book")
	require.NotNil(t, book)
	assert.Equal(t, "untitled", book.Field("title").DefaultValue())
	require.Len(t, book.Behaviors, 1)
	assert.Equal(t, "true", book.Behaviors[0].Parameters["disable_updated_at"])
	require.Len(t, book.Uniques, 1)
	assert.Equal(t, 8, book.Uniques[0].Columns[0].Size)
	require.Len(t, restored.Entity("Author").Referrers, 1)
}

func TestSnapshot_FirstHasNoParent(t *testing.T) {
	s := NewSnapshot(bookstore(t), nil)
	var buf bytes.Buffer
	require.NoError(t, WriteSnapshot(&buf, s))
	got, err := ReadSnapshot(&buf)
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, got.Parent)
}

func TestReadSnapshot_Errors(t *testing.T) {
	t.Run("garbage", func(t *testing.T) {
		_, err := ReadSnapshot(bytes.NewReader([]byte{0xc1}))
		require.Error(t, err)
		assert.True(t, propel.IsParseError(err))
	})
	t.Run("version", func(t *testing.T) {
		b, err := msgpack.Marshal(&snapFile{Version: 99, ID: uuid.NewString()})
		require.NoError(t, err)
		_, err = ReadSnapshot(bytes.NewReader(b))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported snapshot version")
	})
	t.Run("bad id", func(t *testing.T) {
		b, err := msgpack.Marshal(&snapFile{Version: snapshotVersion, ID: "nope"})
		require.NoError(t, err)
		_, err = ReadSnapshot(bytes.NewReader(b))
		require.Error(t, err)
		assert.True(t, propel.IsParseError(err))
	})
}
