package schema

import (
	"fmt"
	"strings"

	"github.com/syssam/propel"
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Table   string
	Column  string
	Message string
	// Breaking indicates if this is a breaking change.
	Breaking bool
}

func (e *ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s.%s: %s", e.Table, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Message)
}

// ValidationResult holds the results of schema validation.
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// HasBreakingChanges returns true if there are any breaking changes.
func (r *ValidationResult) HasBreakingChanges() bool {
	for _, e := range r.Errors {
		if e.Breaking {
			return true
		}
	}
	for _, w := range r.Warnings {
		if w.Breaking {
			return true
		}
	}
	return false
}

// Err returns a BuildError listing the errors, or nil.
func (r *ValidationResult) Err() error {
	if !r.HasErrors() {
		return nil
	}
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Error()
	}
	return propel.NewBuildError("validate", "", "%s", strings.Join(msgs, "; "))
}

// String returns a human-readable summary of the validation result.
func (r *ValidationResult) String() string {
	var sb strings.Builder
	if len(r.Errors) > 0 {
		sb.WriteString("Errors:\n")
		for _, e := range r.Errors {
			sb.WriteString("  - ")
			sb.WriteString(e.Error())
			if e.Breaking {
				sb.WriteString(" [BREAKING]")
			}
			sb.WriteString("\n")
		}
	}
	if len(r.Warnings) > 0 {
		sb.WriteString("Warnings:\n")
		for _, w := range r.Warnings {
			sb.WriteString("  - ")
			sb.WriteString(w.Error())
			if w.Breaking {
				sb.WriteString(" [BREAKING]")
			}
			sb.WriteString("\n")
		}
	}
	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}
	return sb.String()
}

// ValidateOption configures schema validation.
type ValidateOption func(*validateConfig)

type validateConfig struct {
	allowDropColumn    bool
	allowDropTable     bool
	allowDropIndex     bool
	allowNullToNotNull bool
	allowNarrowing     bool
}

// AllowDropColumn allows dropping columns without error.
func AllowDropColumn() ValidateOption {
	return func(c *validateConfig) {
		c.allowDropColumn = true
	}
}

// AllowDropTable allows dropping tables without error.
func AllowDropTable() ValidateOption {
	return func(c *validateConfig) {
		c.allowDropTable = true
	}
}

// AllowDropIndex allows dropping indexes without error.
func AllowDropIndex() ValidateOption {
	return func(c *validateConfig) {
		c.allowDropIndex = true
	}
}

// AllowNullToNotNull allows changing nullable columns to not null.
func AllowNullToNotNull() ValidateOption {
	return func(c *validateConfig) {
		c.allowNullToNotNull = true
	}
}

// AllowNarrowing allows reducing column sizes.
func AllowNarrowing() ValidateOption {
	return func(c *validateConfig) {
		c.allowNarrowing = true
	}
}

// ValidateDiff checks a database diff for changes that may lose data or fail
// on a populated database. Breaking changes are errors unless allowed by an
// option, in which case they are reported as warnings.
//
// Example:
//
//	diff := schema.CompareDatabases(current, desired)
//	result := schema.ValidateDiff(diff)
//	if result.HasErrors() {
//	    log.Fatal("Breaking changes detected:", result)
//	}
func ValidateDiff(diff *DatabaseDiff, opts ...ValidateOption) *ValidationResult {
	cfg := &validateConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	result := &ValidationResult{}
	for _, e := range diff.Removed {
		result.add(cfg.allowDropTable, &ValidationError{
			Table:    e.Table(),
			Message:  "table will be dropped",
			Breaking: true,
		})
	}
	for _, ed := range diff.Modified {
		validateEntityDiff(ed, cfg, result)
	}
	return result
}

func (r *ValidationResult) add(allowed bool, err *ValidationError) {
	if allowed {
		r.Warnings = append(r.Warnings, err)
	} else {
		r.Errors = append(r.Errors, err)
	}
}

func (r *ValidationResult) warn(err *ValidationError) {
	r.Warnings = append(r.Warnings, err)
}

func validateEntityDiff(d *EntityDiff, cfg *validateConfig, result *ValidationResult) {
	table := d.To.Table()
	for _, f := range d.RemovedFields {
		result.add(cfg.allowDropColumn, &ValidationError{
			Table:    table,
			Column:   f.ColumnName(),
			Message:  "column will be dropped",
			Breaking: true,
		})
	}
	for _, f := range d.AddedFields {
		if f.NotNull() && !f.HasDefault() && !f.AutoIncrement {
			result.warn(&ValidationError{
				Table:   table,
				Column:  f.ColumnName(),
				Message: "new NOT NULL column without default value may fail if table has data",
			})
		}
	}
	for _, fd := range d.ModifiedFields {
		from, to := fd.From, fd.To
		col := to.ColumnName()
		if from.Type != to.Type {
			result.warn(&ValidationError{
				Table:   table,
				Column:  col,
				Message: fmt.Sprintf("column type changing from %v to %v", from.Type, to.Type),
			})
		}
		if !from.NotNull() && to.NotNull() && !to.HasDefault() {
			result.add(cfg.allowNullToNotNull, &ValidationError{
				Table:    table,
				Column:   col,
				Message:  "column changing from NULL to NOT NULL may fail if column has NULL values",
				Breaking: true,
			})
		}
		if from.Size > 0 && to.Size > 0 && to.Size < from.Size {
			result.add(cfg.allowNarrowing, &ValidationError{
				Table:    table,
				Column:   col,
				Message:  fmt.Sprintf("column size reducing from %d to %d may truncate data", from.Size, to.Size),
				Breaking: true,
			})
		}
	}
	if d.PKChanged {
		result.warn(&ValidationError{
			Table:   table,
			Message: "primary key will be dropped and recreated",
		})
	}
	for _, idx := range d.AddedIndices {
		if idx.Unique {
			result.warn(&ValidationError{
				Table:   table,
				Message: fmt.Sprintf("adding unique index %q may fail if duplicate values exist", idx.IndexName()),
			})
		}
	}
	for _, idx := range d.RemovedIndices {
		result.add(cfg.allowDropIndex, &ValidationError{
			Table:   table,
			Message: fmt.Sprintf("index %q will be dropped", idx.IndexName()),
		})
	}
}
