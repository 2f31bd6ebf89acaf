package schema

import (
	"maps"
	"strings"
)

// BehaviorSpec is a behavior declared in a schema document. The behavior
// engine turns specs into live behaviors.
type BehaviorSpec struct {
	Name       string
	ID         string // Distinguishes several instances of the same behavior
	Parameters map[string]string
}

// BehaviorID returns ID, defaulting to the name.
func (b *BehaviorSpec) BehaviorID() string {
	if b.ID != "" {
		return b.ID
	}
	return b.Name
}

// Clone returns a deep copy of b.
func (b *BehaviorSpec) Clone() *BehaviorSpec {
	return &BehaviorSpec{Name: b.Name, ID: b.ID, Parameters: maps.Clone(b.Parameters)}
}

// Vendor holds platform-specific parameters (engine, charset, collation).
type Vendor struct {
	Type       string
	Parameters map[string]string
}

// Parameter returns a vendor parameter, or "".
func (v *Vendor) Parameter(name string) string {
	if v == nil {
		return ""
	}
	return v.Parameters[name]
}

func findVendor(vs []*Vendor, platform string) *Vendor {
	for _, v := range vs {
		if strings.EqualFold(v.Type, platform) {
			return v
		}
	}
	return nil
}

func cloneVendors(vs []*Vendor) []*Vendor {
	if vs == nil {
		return nil
	}
	out := make([]*Vendor, len(vs))
	for i, v := range vs {
		out[i] = &Vendor{Type: v.Type, Parameters: maps.Clone(v.Parameters)}
	}
	return out
}

func cloneBehaviors(bs []*BehaviorSpec) []*BehaviorSpec {
	if bs == nil {
		return nil
	}
	out := make([]*BehaviorSpec, len(bs))
	for i, b := range bs {
		out[i] = b.Clone()
	}
	return out
}
