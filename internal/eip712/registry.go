package eip712

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// identRegexp is the grammar for field names and struct type names.
var identRegexp = regexp.MustCompile(`^[A-Za-z_$][A-Za-z_$0-9]*$`)

// Field is one member of a struct type declaration.
type Field struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

// Types maps struct type names to their ordered member lists.
type Types map[string][]Field

type resolvedField struct {
	name string
	typ  Type
}

// Registry is a validated, immutable view over Types: every field type is
// parsed, every struct reference resolves and the reference graph is acyclic.
// A Registry is safe for concurrent use.
type Registry struct {
	types   Types
	fields  map[string][]resolvedField
	deps    map[string][]string
	encoded map[string]string
}

// NewRegistry validates types and returns a Registry over a private copy of it.
func NewRegistry(types Types) (*Registry, error) {
	r := &Registry{
		types:   make(Types, len(types)),
		fields:  make(map[string][]resolvedField, len(types)),
		deps:    make(map[string][]string, len(types)),
		encoded: make(map[string]string, len(types)),
	}

	for name, fields := range types {
		if !identRegexp.MatchString(name) {
			return nil, fmt.Errorf("%w: type name %q", ErrInvalidFieldName, name)
		}
		r.types[name] = append([]Field(nil), fields...)

		resolved := make([]resolvedField, len(fields))
		seen := make(map[string]struct{}, len(fields))
		for i, f := range fields {
			if !identRegexp.MatchString(f.Name) {
				return nil, fmt.Errorf("%w: %q in type %s", ErrInvalidFieldName, f.Name, name)
			}
			if _, dup := seen[f.Name]; dup {
				return nil, fmt.Errorf("%w: %q declared twice in type %s", ErrInvalidFieldName, f.Name, name)
			}
			seen[f.Name] = struct{}{}

			t, err := ParseType(f.Type)
			if err != nil {
				return nil, fmt.Errorf("type %s field %s: %w", name, f.Name, err)
			}
			resolved[i] = resolvedField{name: f.Name, typ: t}
		}
		r.fields[name] = resolved
	}

	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		deps, err := r.collect(name)
		if err != nil {
			return nil, err
		}
		r.deps[name] = deps
		r.encoded[name] = r.render(deps)
	}

	return r, nil
}

// Types returns a copy of the declarations the registry was built from.
func (r *Registry) Types() Types {
	out := make(Types, len(r.types))
	for name, fields := range r.types {
		out[name] = append([]Field(nil), fields...)
	}
	return out
}

// Has reports whether name is a declared struct type.
func (r *Registry) Has(name string) bool {
	_, ok := r.types[name]
	return ok
}

// Dependencies returns name followed by every struct type it references,
// directly or transitively, with the referenced types sorted by name.
func (r *Registry) Dependencies(name string) ([]string, error) {
	deps, ok := r.deps[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, name)
	}
	return append([]string(nil), deps...), nil
}

// EncodeType returns the canonical type signature of name, for example
// "Mail(Person from,Person to,string contents)Person(string name,address wallet)".
func (r *Registry) EncodeType(name string) (string, error) {
	s, ok := r.encoded[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownType, name)
	}
	return s, nil
}

// TypeHash returns keccak256 of the canonical type signature of name.
func (r *Registry) TypeHash(name string) (common.Hash, error) {
	s, err := r.EncodeType(name)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash([]byte(s)), nil
}

// collect walks the reference graph from root. A type reached again while it
// is still being expanded is a cycle.
func (r *Registry) collect(root string) ([]string, error) {
	const (
		expanding = 1
		done      = 2
	)
	state := make(map[string]int)
	var order []string

	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		switch state[name] {
		case expanding:
			return fmt.Errorf("%w: %s", ErrCyclicTypeDependency, strings.Join(append(path, name), " -> "))
		case done:
			return nil
		}
		fields, ok := r.fields[name]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownType, name)
		}

		state[name] = expanding
		path = append(path, name)
		for _, f := range fields {
			base := f.typ.Base()
			if base.Kind != KindCustom {
				continue
			}
			if _, declared := r.fields[base.Name]; !declared {
				return fmt.Errorf("%w: %s (field %s.%s)", ErrUnknownType, base.Name, name, f.name)
			}
			if err := visit(base.Name, path); err != nil {
				return err
			}
		}
		state[name] = done
		order = append(order, name)
		return nil
	}

	if err := visit(root, nil); err != nil {
		return nil, err
	}

	deps := make([]string, 0, len(order))
	deps = append(deps, root)
	for _, name := range order {
		if name != root {
			deps = append(deps, name)
		}
	}
	sort.Strings(deps[1:])
	return deps, nil
}

func (r *Registry) render(deps []string) string {
	var b strings.Builder
	for _, name := range deps {
		b.WriteString(name)
		b.WriteByte('(')
		for i, f := range r.fields[name] {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(f.typ.String())
			b.WriteByte(' ')
			b.WriteString(f.name)
		}
		b.WriteByte(')')
	}
	return b.String()
}

// EncodeType validates types and returns the canonical signature of root.
func EncodeType(root string, types Types) (string, error) {
	r, err := NewRegistry(types)
	if err != nil {
		return "", err
	}
	return r.EncodeType(root)
}

// TypeHash validates types and returns the type hash of root.
func TypeHash(root string, types Types) (common.Hash, error) {
	r, err := NewRegistry(types)
	if err != nil {
		return common.Hash{}, err
	}
	return r.TypeHash(root)
}
