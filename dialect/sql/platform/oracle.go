package platform

import (
	"fmt"
	"strconv"

	"github.com/syssam/propel/dialect"
	model "github.com/syssam/propel/schema"
)

// Oracle renders DDL for Oracle Database. Keys come from one sequence per
// table.
type Oracle struct {
	common
}

// NewOracle returns the Oracle platform.
func NewOracle() *Oracle {
	p := &Oracle{}
	p.common = common{self: p, settings: settings{
		name:     dialect.Oracle,
		open:     `"`,
		close:    `"`,
		maxIdent: 30,
		types: map[model.FieldType]typeDef{
			model.TypeBoolean:     {name: "NUMBER(1,0)"},
			model.TypeTinyInt:     {name: "NUMBER(3,0)"},
			model.TypeSmallInt:    {name: "NUMBER(5,0)"},
			model.TypeInteger:     {name: "NUMBER(10,0)"},
			model.TypeBigInt:      {name: "NUMBER(20,0)"},
			model.TypeFloat:       {name: "FLOAT"},
			model.TypeDouble:      {name: "FLOAT"},
			model.TypeDecimal:     {name: "NUMBER", sized: true},
			model.TypeChar:        {name: "CHAR", sized: true, defaultSize: 1},
			model.TypeVarchar:     {name: "NVARCHAR2", sized: true, defaultSize: 255},
			model.TypeLongVarchar: {name: "NVARCHAR2(2000)"},
			model.TypeClob:        {name: "CLOB"},
			model.TypeBlob:        {name: "BLOB"},
			model.TypeDate:        {name: "DATE"},
			model.TypeTime:        {name: "DATE"},
			model.TypeTimestamp:   {name: "TIMESTAMP"},
			model.TypeEnum:        {name: "NVARCHAR2", sized: true},
			model.TypeArray:       {name: "CLOB"},
			model.TypeObject:      {name: "BLOB"},
			model.TypeJSON:        {name: "CLOB"},
			model.TypeUUID:        {name: "CHAR(36)"},
		},
		boolTrue:      "1",
		boolFalse:     "0",
		placeholder:   func(n int) string { return ":" + strconv.Itoa(n) },
		ids:           Sequence,
		deleteTrigger: true,
		addColumn:     "ADD",
		dropColumn:    "DROP COLUMN",
		pkSuffix:      "_pk",
		namedPK:       true,
		noOnUpdate:    true,
	}}
	return p
}

// BeginDDL implements Platform.
func (p *Oracle) BeginDDL() string {
	return `
ALTER SESSION SET NLS_DATE_FORMAT='YYYY-MM-DD';
ALTER SESSION SET NLS_TIMESTAMP_FORMAT='YYYY-MM-DD HH24:MI:SS';
`
}

func (p *Oracle) sequenceName(e *model.Entity) string {
	return p.identifier(e.Table() + "_SEQ")
}

// AddEntityDDL implements Platform. Entities with an auto-increment key get
// their sequence.
func (p *Oracle) AddEntityDDL(e *model.Entity) string {
	ddl := p.common.AddEntityDDL(e)
	if e.AutoIncrementField() != nil && e.EffectiveIDMethod() != model.IDMethodNone {
		ddl += fmt.Sprintf("\nCREATE SEQUENCE %s\n    INCREMENT BY 1 START WITH 1 NOMAXVALUE NOCYCLE NOCACHE ORDER;\n", p.Quote(p.sequenceName(e)))
	}
	return ddl
}

// DropEntityDDL implements Platform.
func (p *Oracle) DropEntityDDL(e *model.Entity) string {
	ddl := fmt.Sprintf("\nDROP TABLE %s CASCADE CONSTRAINTS;\n", p.Quote(e.Table()))
	if e.AutoIncrementField() != nil && e.EffectiveIDMethod() != model.IDMethodNone {
		ddl += fmt.Sprintf("\nDROP SEQUENCE %s;\n", p.Quote(p.sequenceName(e)))
	}
	return ddl
}

// SequenceSQL implements Platform.
func (p *Oracle) SequenceSQL(e *model.Entity) string {
	if e.AutoIncrementField() == nil {
		return ""
	}
	return fmt.Sprintf("SELECT %s.NEXTVAL FROM DUAL", p.Quote(p.sequenceName(e)))
}
