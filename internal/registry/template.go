package registry

import (
	"strconv"
	"strings"

	"github.com/funvibe/cppi/internal/config"
	"github.com/funvibe/cppi/internal/diagnostics"
	"github.com/funvibe/cppi/internal/resume"
	"github.com/funvibe/cppi/internal/value"
)

// Field is one member of a class layout.
type Field struct {
	Name string
	Type value.Type
}

// Layout gives the members of a class instantiation in declaration order.
type Layout func(cls *value.Class) []Field

// FixedLayout is a layout that ignores template arguments.
func FixedLayout(fields ...Field) Layout {
	return func(*value.Class) []Field { return append([]Field{}, fields...) }
}

// ArgLayout gives member i the type of template argument i.
func ArgLayout(names ...string) Layout {
	return func(cls *value.Class) []Field {
		if len(cls.Args) < len(names) {
			return nil
		}
		out := make([]Field, len(names))
		for i, n := range names {
			out[i] = Field{Name: n, Type: cls.Args[i]}
		}
		return out
	}
}

// ListShape lets a brace list initialize a class member by member.
type ListShape struct {
	Layout Layout
	// Arity is the number of template arguments the shape applies to;
	// negative means any.
	Arity int
}

// Fields implements matcher.Shape.
func (s *ListShape) Fields(dst *value.Class) ([]value.Type, bool) {
	if s.Arity >= 0 && len(dst.Args) != s.Arity {
		return nil, false
	}
	fields := s.Layout(dst)
	if fields == nil {
		return nil, false
	}
	out := make([]value.Type, len(fields))
	for i, f := range fields {
		out[i] = f.Type
	}
	return out, true
}

// RegisterListShape adds a brace-list shape for a class domain. Shapes are
// tried in registration order.
func (r *Registry) RegisterListShape(classDomain string, shape *ListShape) {
	r.shapes[classDomain] = append(r.shapes[classDomain], shape)
	r.logger.Debug("list shape registered", "domain", classDomain, "arity", shape.Arity)
}

// Template is a generic class: one layout for every instantiation.
type Template struct {
	Owner  string
	Name   string
	Arity  int
	Layout Layout
}

// Domain is the class domain of the template's members.
func (t *Template) Domain() string { return ClassDomain(t.Owner, t.Name) }

func (t *Template) nested() bool { return t.Owner != config.GlobalDomain && t.Owner != "" }

// defaultSignature is "!Type… [!Class] FUNCTION CLASS name < ?0 … > [IN ?n] ( )".
func (t *Template) defaultSignature() string {
	var b strings.Builder
	for i := 0; i < t.Arity; i++ {
		b.WriteString("!Type ")
	}
	if t.nested() {
		b.WriteString("!Class ")
	}
	b.WriteString("FUNCTION CLASS ")
	b.WriteString(t.Name)
	b.WriteString(" <")
	for i := 0; i < t.Arity; i++ {
		b.WriteString(" ?")
		b.WriteString(strconv.Itoa(i))
	}
	b.WriteString(" >")
	if t.nested() {
		b.WriteString(" IN ?")
		b.WriteString(strconv.Itoa(t.Arity))
	}
	b.WriteString(" ( )")
	return b.String()
}

// DefineTemplate registers a generic class under owner (GlobalDomain for a
// top-level class, a class domain for a nested one). Every instantiation
// gets a default constructor building each member through DefaultValue,
// and a list shape over the same layout.
func (r *Registry) DefineTemplate(owner, name string, arity int, layout Layout) error {
	if arity < 0 {
		return diagnostics.New(diagnostics.ErrTemplateArity, "template %s cannot take %d arguments", name, arity)
	}
	t := &Template{Owner: owner, Name: name, Arity: arity, Layout: layout}
	domain := t.Domain()
	if _, dup := r.templates[domain]; dup {
		return diagnostics.New(diagnostics.ErrDuplicateImplementation, "template %s is already defined", domain)
	}
	if err := r.Register(domain, config.DefaultConstructorName, t.defaultSignature(), r.defaultTarget(t)); err != nil {
		return err
	}
	r.templates[domain] = t
	r.RegisterListShape(domain, &ListShape{Layout: layout, Arity: arity})
	return nil
}

// Template returns the generic class registered for a class domain.
func (r *Registry) Template(domain string) (*Template, bool) {
	t, ok := r.templates[domain]
	return t, ok
}

func (r *Registry) defaultTarget(t *Template) Callable {
	return func(call *Call, _ []*value.Variable) step {
		cls, ok := call.Return.(*value.Class)
		if !ok {
			return fail(diagnostics.New(diagnostics.ErrUnresolvedWildcard, "default constructor of %s has no concrete class", t.Name))
		}
		fields := t.Layout(cls)
		vals := resume.Each(fields, func(_ int, f Field) step { return r.DefaultValue(f.Type) })
		return resume.Then(vals, func(vs []*value.Variable) step {
			members := make(map[string]*value.Variable, len(fields))
			for i, f := range fields {
				members[f.Name] = vs[i]
			}
			return resume.Done(value.NewObject(cls, members))
		})
	}
}

// DefaultValue builds the value a declaration without initializer gets:
// zero for arithmetic types and pointers, element-wise defaults for
// arrays, and the class's default constructor for classes.
func (r *Registry) DefaultValue(t value.Type) step {
	switch tt := t.(type) {
	case *value.Arithmetic:
		raw, _ := value.Zero(t)
		return resume.Done(value.Temp(t, raw))
	case *value.Pointer:
		if !tt.Fixed {
			raw, _ := value.Zero(t)
			return resume.Done(value.Temp(t, raw))
		}
		cells := make([]int, tt.Size)
		vals := resume.Each(cells, func(int, int) step { return r.DefaultValue(tt.Elem) })
		return resume.Then(vals, func(vs []*value.Variable) step {
			region, err := value.RegionOf(tt.Elem, vs)
			if err != nil {
				return fail(err)
			}
			return resume.Done(value.Temp(t, value.Ptr{Kind: value.Index, Region: region}))
		})
	case *value.Class:
		if tpl, ok := r.templates[tt.Domain()]; ok && len(tt.Args) != tpl.Arity {
			return fail(diagnostics.New(diagnostics.ErrTemplateArity, "%s takes %d template arguments, got %d", tpl.Name, tpl.Arity, len(tt.Args)))
		}
		res, err := r.LookupReturning(tt.Domain(), config.DefaultConstructorName, tt, nil)
		if err != nil {
			return fail(err)
		}
		if res == nil {
			return fail(diagnostics.New(diagnostics.ErrNoDefault, "%s has no default constructor", tt))
		}
		return r.Invoke(res, nil)
	}
	return fail(diagnostics.New(diagnostics.ErrNoDefault, "%s has no default value", t))
}
