package schema

import (
	"io"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/propel"
	model "github.com/syssam/propel/schema"
)

// Snapshot is a recorded schema state. Snapshots form a chain through Parent,
// so a diff can always be computed against the state a database was last
// migrated to.
type Snapshot struct {
	ID      uuid.UUID
	Parent  uuid.UUID // uuid.Nil for the first snapshot
	Created time.Time

	state snapDatabase
}

type (
	snapFile struct {
		Version  int          `msgpack:"v"`
		ID       string       `msgpack:"id"`
		Parent   string       `msgpack:"parent,omitempty"`
		Created  time.Time    `msgpack:"created"`
		Database snapDatabase `msgpack:"database"`
	}
	snapDatabase struct {
		Name      string       `msgpack:"name"`
		Platform  string       `msgpack:"platform,omitempty"`
		Namespace string       `msgpack:"namespace,omitempty"`
		IDMethod  string       `msgpack:"id_method,omitempty"`
		Entities  []snapEntity `msgpack:"entities"`
	}
	snapEntity struct {
		Name       string         `msgpack:"name"`
		Table      string         `msgpack:"table,omitempty"`
		Namespace  string         `msgpack:"namespace,omitempty"`
		IDMethod   string         `msgpack:"id_method,omitempty"`
		ReadOnly   bool           `msgpack:"read_only,omitempty"`
		CrossRef   bool           `msgpack:"cross_ref,omitempty"`
		Fields     []snapField    `msgpack:"fields"`
		Relations  []snapRelation `msgpack:"relations,omitempty"`
		Indices    []snapIndex    `msgpack:"indices,omitempty"`
		Behaviors  []snapBehavior `msgpack:"behaviors,omitempty"`
	}
	snapField struct {
		Name          string   `msgpack:"name"`
		Column        string   `msgpack:"column,omitempty"`
		Type          string   `msgpack:"type"`
		Size          int      `msgpack:"size,omitempty"`
		Scale         int      `msgpack:"scale,omitempty"`
		Nullable      bool     `msgpack:"nullable,omitempty"`
		Default       *string  `msgpack:"default,omitempty"`
		AutoIncrement bool     `msgpack:"auto_increment,omitempty"`
		PrimaryKey    bool     `msgpack:"primary_key,omitempty"`
		ValueSet      []string `msgpack:"value_set,omitempty"`
	}
	snapRelation struct {
		Name     string     `msgpack:"name,omitempty"`
		Target   string     `msgpack:"target"`
		OnDelete string     `msgpack:"on_delete,omitempty"`
		OnUpdate string     `msgpack:"on_update,omitempty"`
		Refs     [][]string `msgpack:"refs"`
	}
	snapIndex struct {
		Name    string   `msgpack:"name,omitempty"`
		Unique  bool     `msgpack:"unique,omitempty"`
		Columns []string `msgpack:"columns"`
		Sizes   []int    `msgpack:"sizes,omitempty"`
	}
	snapBehavior struct {
		Name       string            `msgpack:"name"`
		ID         string            `msgpack:"id,omitempty"`
		Parameters map[string]string `msgpack:"parameters,omitempty"`
	}
)

const snapshotVersion = 1

// NewSnapshot records the state of db. A nil parent starts a new chain.
func NewSnapshot(db *model.Database, parent *Snapshot) *Snapshot {
	s := &Snapshot{ID: uuid.New(), Created: time.Now().UTC(), state: encodeDatabase(db)}
	if parent != nil {
		s.Parent = parent.ID
	}
	return s
}

// WriteSnapshot encodes s to w.
func WriteSnapshot(w io.Writer, s *Snapshot) error {
	f := snapFile{
		Version:  snapshotVersion,
		ID:       s.ID.String(),
		Created:  s.Created,
		Database: s.state,
	}
	if s.Parent != uuid.Nil {
		f.Parent = s.Parent.String()
	}
	if err := msgpack.NewEncoder(w).Encode(&f); err != nil {
		return propel.NewIOError("write", "snapshot", err)
	}
	return nil
}

// ReadSnapshot decodes a snapshot written by WriteSnapshot.
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	var f snapFile
	if err := msgpack.NewDecoder(r).Decode(&f); err != nil {
		return nil, propel.NewParseError("msgpack", "snapshot", err, err.Error())
	}
	if f.Version != snapshotVersion {
		return nil, propel.NewParseError("msgpack", "snapshot", propel.ErrInvalidContent, "unsupported snapshot version")
	}
	id, err := uuid.Parse(f.ID)
	if err != nil {
		return nil, propel.NewParseError("msgpack", "snapshot", err, "invalid snapshot id")
	}
	s := &Snapshot{ID: id, Created: f.Created, state: f.Database}
	if f.Parent != "" {
		if s.Parent, err = uuid.Parse(f.Parent); err != nil {
			return nil, propel.NewParseError("msgpack", "snapshot", err, "invalid parent id")
		}
	}
	return s, nil
}

// Database rebuilds the recorded model and links it.
func (s *Snapshot) Database() (*model.Database, error) {
	st := s.state
	db := model.NewDatabase(st.Name)
	db.Platform = st.Platform
	db.Namespace = st.Namespace
	db.DefaultIDMethod = st.IDMethod
	for _, se := range st.Entities {
		e := model.NewEntity(se.Name)
		e.TableName = se.Table
		e.Namespace = se.Namespace
		e.IDMethod = se.IDMethod
		e.ReadOnly = se.ReadOnly
		e.IsCrossRef = se.CrossRef
		for _, sf := range se.Fields {
			t, err := model.ParseFieldType(sf.Type)
			if err != nil {
				return nil, err
			}
			if err := e.AddField(&model.Field{
				Name:          sf.Name,
				Column:        sf.Column,
				Type:          t,
				Size:          sf.Size,
				Scale:         sf.Scale,
				Nullable:      sf.Nullable,
				Default:       sf.Default,
				AutoIncrement: sf.AutoIncrement,
				PrimaryKey:    sf.PrimaryKey,
				ValueSet:      sf.ValueSet,
			}); err != nil {
				return nil, err
			}
		}
		for _, sr := range se.Relations {
			r := &model.Relation{Name: sr.Name, Target: sr.Target, OnDelete: sr.OnDelete, OnUpdate: sr.OnUpdate}
			for _, ref := range sr.Refs {
				if len(ref) == 2 {
					r.References = append(r.References, &model.Reference{Local: ref[0], Foreign: ref[1]})
				}
			}
			if err := e.AddRelation(r); err != nil {
				return nil, err
			}
		}
		for _, si := range se.Indices {
			idx := &model.Index{Name: si.Name, Unique: si.Unique}
			for i, c := range si.Columns {
				col := model.IndexColumn{Name: c}
				if i < len(si.Sizes) {
					col.Size = si.Sizes[i]
				}
				idx.Columns = append(idx.Columns, col)
			}
			if err := e.AddIndex(idx); err != nil {
				return nil, err
			}
		}
		for _, sb := range se.Behaviors {
			e.AddBehavior(&model.BehaviorSpec{Name: sb.Name, ID: sb.ID, Parameters: maps.Clone(sb.Parameters)})
		}
		if err := db.AddEntity(e); err != nil {
			return nil, err
		}
	}
	if err := db.Link(); err != nil {
		return nil, err
	}
	return db, nil
}

func encodeDatabase(db *model.Database) snapDatabase {
	st := snapDatabase{Name: db.Name, Platform: db.Platform, Namespace: db.Namespace, IDMethod: db.DefaultIDMethod}
	for _, e := range db.Entities {
		se := snapEntity{
			Name:      e.Name,
			Table:     e.TableName,
			Namespace: e.Namespace,
			IDMethod:  e.IDMethod,
			ReadOnly:  e.ReadOnly,
			CrossRef:  e.IsCrossRef,
		}
		for _, f := range e.Fields {
			se.Fields = append(se.Fields, snapField{
				Name:          f.Name,
				Column:        f.Column,
				Type:          f.Type.String(),
				Size:          f.Size,
				Scale:         f.Scale,
				Nullable:      f.Nullable,
				Default:       f.Default,
				AutoIncrement: f.AutoIncrement,
				PrimaryKey:    f.PrimaryKey,
				ValueSet:      slices.Clone(f.ValueSet),
			})
		}
		for _, r := range e.Relations {
			sr := snapRelation{Name: r.Name, Target: r.Target, OnDelete: r.OnDelete, OnUpdate: r.OnUpdate}
			for _, ref := range r.References {
				sr.Refs = append(sr.Refs, []string{ref.Local, ref.Foreign})
			}
			se.Relations = append(se.Relations, sr)
		}
		for _, idx := range e.AllIndices() {
			si := snapIndex{Name: idx.Name, Unique: idx.Unique}
			for _, c := range idx.Columns {
				si.Columns = append(si.Columns, c.Name)
				si.Sizes = append(si.Sizes, c.Size)
			}
			se.Indices = append(se.Indices, si)
		}
		for _, b := range e.Behaviors {
			se.Behaviors = append(se.Behaviors, snapBehavior{Name: b.Name, ID: b.ID, Parameters: maps.Clone(b.Parameters)})
		}
		st.Entities = append(st.Entities, se)
	}
	return st
}
