package compiler

// EntryKind classifies what a symbol-table entry refers to.
type EntryKind uint8

const (
	EntryFunc EntryKind = iota
	EntryConst
	EntryStruct
	EntryEnum
	EntryParam
	EntryLocal
)

// Entry is a single symbol-table declaration.
type Entry struct {
	Kind EntryKind
	Type Type
}

// scopeStack is the compiler's lexical scope discipline: push adds an empty
// name->entry map, pop never pops the root, lookup walks top-to-bottom
// returning the nearest shadowing entry, and reset drops everything but the
// root.
type scopeStack struct {
	scopes []map[string]*Entry
}

func newScopeStack() *scopeStack {
	return &scopeStack{scopes: []map[string]*Entry{{}}}
}

func (s *scopeStack) push() { s.scopes = append(s.scopes, map[string]*Entry{}) }

func (s *scopeStack) pop() {
	if len(s.scopes) <= 1 {
		return
	}
	s.scopes = s.scopes[:len(s.scopes)-1]
}

func (s *scopeStack) depth() int { return len(s.scopes) }

// declare adds name to the top scope, returning the previous entry at that
// same depth if any (used to detect same-scope duplicates).
func (s *scopeStack) declare(name string, e *Entry) (prev *Entry, shadowedSameScope bool) {
	top := s.scopes[len(s.scopes)-1]
	prev, shadowedSameScope = top[name]
	top[name] = e
	return prev, shadowedSameScope
}

// lookup walks scopes from innermost to outermost, returning the nearest
// shadowing entry.
func (s *scopeStack) lookup(name string) (*Entry, bool) {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if e, ok := s.scopes[i][name]; ok {
			return e, true
		}
	}
	return nil, false
}

func (s *scopeStack) reset() { s.scopes = s.scopes[:1] }
