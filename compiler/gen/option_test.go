package gen

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/propel/dialect"
	"github.com/syssam/propel/dialect/sql/platform"
)

// =============================================================================
// Config Tests
// =============================================================================

func TestNewConfig_Defaults(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "generated", cfg.OutputDir)
	assert.Equal(t, "model", cfg.Package)
	assert.Equal(t, DefaultHeader, cfg.Header)
	assert.Equal(t, dialect.MySQL, cfg.Platform.Name())
	assert.IsType(t, StandardPluralizer{}, cfg.Pluralizer)
	assert.Equal(t, AllBuilders, cfg.Builders)
	assert.GreaterOrEqual(t, cfg.Workers, 1)
	assert.True(t, cfg.Format)
	assert.NotNil(t, cfg.Logger)
	assert.Nil(t, cfg.Metrics)
}

func TestNewConfig_Options(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	cfg, err := NewConfig(
		WithOutputDir("out"),
		WithPackage("store"),
		WithHeader(""),
		WithPlatform("pgsql"),
		WithPluralizer(SimplePluralizer{}),
		WithBuilders(Object, Repository),
		WithWorkers(2),
		WithFormat(false),
		WithLogger(logger),
	)
	require.NoError(t, err)

	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, "store", cfg.Package)
	assert.Empty(t, cfg.Header)
	assert.Equal(t, dialect.Postgres, cfg.Platform.Name())
	assert.True(t, cfg.HasBuilder(Repository))
	assert.False(t, cfg.HasBuilder(Query))
	assert.Equal(t, 2, cfg.Workers)
	assert.False(t, cfg.Format)
	assert.Same(t, logger, cfg.Logger)
}

func TestWithPlatformInstance(t *testing.T) {
	cfg, err := NewConfig(WithPlatformInstance(platform.NewSQLite()))
	require.NoError(t, err)
	assert.Equal(t, dialect.SQLite, cfg.Platform.Name())

	_, err = NewConfig(WithPlatformInstance(nil))
	assert.True(t, IsConfigError(err))
}

func TestOptions_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		opt    Option
		option string
	}{
		{"empty output", WithOutputDir(""), "OutputDir"},
		{"empty package", WithPackage(""), "Package"},
		{"unknown platform", WithPlatform("db2"), "Platform"},
		{"nil pluralizer", WithPluralizer(nil), "Pluralizer"},
		{"no builders", WithBuilders(), "Builders"},
		{"unknown builder", WithBuilders("controller"), "Builders"},
		{"unknown component builder", WithComponents("controller", "struct"), "Components"},
		{"unknown component", WithComponents(Object, "serializer"), "Components"},
		{"zero workers", WithWorkers(0), "Workers"},
		{"nil logger", WithLogger(nil), "Logger"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfig(tt.opt)
			require.Error(t, err)
			assert.True(t, IsConfigError(err))
			assert.ErrorIs(t, err, ErrMissingConfig)
			var ce *ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.option, ce.Option)
		})
	}
}

func TestWithPlatform_ListsNames(t *testing.T) {
	_, err := NewConfig(WithPlatform("db2"))
	require.Error(t, err)
	for _, name := range platform.Names() {
		assert.Contains(t, err.Error(), name)
	}
}

func TestConfig_ApplyAll(t *testing.T) {
	cfg := &Config{}
	err := cfg.ApplyAll(WithOutputDir(""), WithPackage("ok"), WithWorkers(-1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OutputDir")
	assert.Contains(t, err.Error(), "Workers")
	assert.Equal(t, "ok", cfg.Package, "valid options still apply")
}

func TestConfig_Apply(t *testing.T) {
	cfg := &Config{}
	err := cfg.Apply(WithOutputDir(""), WithPackage("skipped"))
	require.Error(t, err)
	assert.Empty(t, cfg.Package, "apply stops at the first error")
}

func TestMustNewConfig(t *testing.T) {
	assert.NotPanics(t, func() { MustNewConfig() })
	assert.Panics(t, func() { MustNewConfig(WithWorkers(0)) })
}

// =============================================================================
// Error Tests
// =============================================================================

func TestConfigError(t *testing.T) {
	err := NewConfigError("Workers", 0, "workers must be positive")
	assert.Equal(t, `propel: config error for "Workers" (value: 0): workers must be positive`, err.Error())
	assert.Equal(t, `propel: config error for "Package": empty`, NewConfigError("Package", nil, "empty").Error())
	assert.True(t, errors.Is(err, ErrMissingConfig))
	assert.False(t, IsGenerationError(err))
}

func TestGenerationError(t *testing.T) {
	cause := errors.New("disk full")
	err := NewGenerationError("write", "book.go", "write file", cause)
	assert.Equal(t, "propel: generation error in phase write (file: book.go): write file: disk full", err.Error())
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsGenerationError(err))
	assert.False(t, IsConfigError(err))
}
