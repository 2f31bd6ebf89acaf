package propel_test

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/propel"
)

func TestIOError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := propel.NewIOError("read", "schema.xml", fs.ErrNotExist)
		assert.Equal(t, "propel: read schema.xml: file does not exist", err.Error())
	})

	t.Run("Is", func(t *testing.T) {
		err := propel.NewIOError("read", "schema.xml", fs.ErrNotExist)
		assert.True(t, errors.Is(err, propel.ErrIO))
		assert.True(t, errors.Is(err, fs.ErrNotExist))
		assert.False(t, errors.Is(err, propel.ErrParse))
	})

	t.Run("IsIOError", func(t *testing.T) {
		err := fmt.Errorf("wrapper: %w", propel.NewIOError("write", "out.go", nil))
		assert.True(t, propel.IsIOError(err))
		assert.False(t, propel.IsIOError(errors.New("other")))
		assert.False(t, propel.IsIOError(nil))
	})
}

func TestParseError(t *testing.T) {
	t.Run("Diagnostics", func(t *testing.T) {
		err := propel.NewParseError("xml", "a.xml", nil, "line 1, column 2: bad", "line 3, column 1: worse")
		assert.Equal(t, "propel: parse xml a.xml: line 1, column 2: bad; line 3, column 1: worse", err.Error())
	})

	t.Run("Cause", func(t *testing.T) {
		err := propel.NewParseError("xml", "a.xml", propel.ErrInvalidContent)
		assert.True(t, errors.Is(err, propel.ErrParse))
		assert.True(t, errors.Is(err, propel.ErrInvalidContent))
		assert.Contains(t, err.Error(), "invalid content")
	})

	t.Run("IsParseError", func(t *testing.T) {
		assert.True(t, propel.IsParseError(fmt.Errorf("x: %w", propel.NewParseError("json", "a.json", nil))))
		assert.False(t, propel.IsParseError(nil))
	})
}

func TestInvalidArgumentError(t *testing.T) {
	tests := []struct {
		name string
		err  *propel.InvalidArgumentError
		want string
	}{
		{"entity and field", propel.NewInvalidArgumentError("Book", "title", "unknown type %q", "STRING"), `propel: Book.title: unknown type "STRING"`},
		{"entity only", propel.NewInvalidArgumentError("Book", "", "duplicate entity"), "propel: Book: duplicate entity"},
		{"message only", propel.NewInvalidArgumentError("", "", "no loader"), "propel: no loader"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
			assert.True(t, errors.Is(tt.err, propel.ErrInvalidArgument))
			assert.True(t, propel.IsInvalidArgumentError(tt.err))
		})
	}
}

func TestBehaviorNotFoundError(t *testing.T) {
	err := propel.NewBehaviorNotFoundError("versionable", "github.com/syssam/propel/behavior.VersionableBehavior")
	assert.True(t, errors.Is(err, propel.ErrBehaviorNotFound))
	assert.True(t, propel.IsBehaviorNotFound(fmt.Errorf("wrap: %w", err)))
	assert.Contains(t, err.Error(), `unknown behavior "versionable"`)
	assert.Contains(t, err.Error(), "VersionableBehavior")
	assert.Contains(t, err.Error(), "try refreshing the dependency lock file")
	assert.Contains(t, err.Error(), "explicit behavior search directory")
}

func TestBuildError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := propel.NewBuildError("attach", "Book", "behavior %q already attached", "timestampable")
		assert.Equal(t, `propel: attach Book: behavior "timestampable" already attached`, err.Error())
	})

	t.Run("Wrap", func(t *testing.T) {
		cause := errors.New("boom")
		err := propel.WrapBuildError("write", "", cause, "format %s", "book.go")
		require.ErrorIs(t, err, cause)
		assert.True(t, errors.Is(err, propel.ErrBuild))
		assert.Equal(t, "propel: write: format book.go: boom", err.Error())
	})

	t.Run("IsBuildError", func(t *testing.T) {
		assert.True(t, propel.IsBuildError(fmt.Errorf("x: %w", propel.NewBuildError("build", "", "x"))))
		assert.False(t, propel.IsBuildError(errors.New("x")))
	})
}

func TestErrorJoin(t *testing.T) {
	err := errors.Join(
		propel.NewInvalidArgumentError("A", "", "x"),
		propel.NewBuildError("build", "B", "y"),
	)
	assert.True(t, errors.Is(err, propel.ErrInvalidArgument))
	assert.True(t, errors.Is(err, propel.ErrBuild))
}
