package ty

import "github.com/xonecas/typo/internal/ast"

// Table maps node ids to inferred types. It keeps ids in the order they
// were first recorded. A Table is built by a single writer and must not
// be modified once handed out; Freeze enforces that.
type Table struct {
	order  []ast.NodeID
	types  map[ast.NodeID]Type
	frozen bool
}

// NewTable returns an empty, writable table.
func NewTable() *Table {
	return &Table{types: make(map[ast.NodeID]Type)}
}

// Record sets the type of id. Recording an id again replaces its type but
// keeps its original position.
func (t *Table) Record(id ast.NodeID, typ Type) {
	if t.frozen {
		panic("ty: Record on frozen table")
	}
	if typ == nil || id == ast.DummyNodeID {
		return
	}
	if _, ok := t.types[id]; !ok {
		t.order = append(t.order, id)
	}
	t.types[id] = typ
}

// Freeze makes the table read-only and returns it.
func (t *Table) Freeze() *Table {
	t.frozen = true
	return t
}

// Lookup returns the type recorded for id.
func (t *Table) Lookup(id ast.NodeID) (Type, bool) {
	typ, ok := t.types[id]
	return typ, ok
}

// Len returns the number of recorded ids.
func (t *Table) Len() int { return len(t.order) }

// Each calls fn for every entry in table order.
func (t *Table) Each(fn func(id ast.NodeID, typ Type)) {
	for _, id := range t.order {
		fn(id, t.types[id])
	}
}
