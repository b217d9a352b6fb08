// Package registry owns overload tables and dispatches calls through the
// matcher.
//
// Overloads live in domains: "{global}" for free functions and operators,
// and the dot-joined class chain ("vector", "vector.iterator") for class
// members. A Registry is not safe for concurrent registration; once it is
// populated, lookups may run concurrently.
package registry

import (
	"log/slog"
	"strings"

	"github.com/funvibe/cppi/internal/config"
	"github.com/funvibe/cppi/internal/diagnostics"
	"github.com/funvibe/cppi/internal/matcher"
	"github.com/funvibe/cppi/internal/resume"
	"github.com/funvibe/cppi/internal/signature"
	"github.com/funvibe/cppi/internal/value"
)

// Callable is the implementation behind an overload. It receives the
// prepared arguments and may suspend for input.
type Callable func(call *Call, args []*value.Variable) resume.Step[*value.Variable]

// Overload is one registered signature. A nil Target is a prototype.
type Overload struct {
	Domain string
	Name   string
	Target Callable
	sig    *signature.Signature
}

func (o *Overload) Signature() *signature.Signature { return o.sig }

func (o *Overload) String() string {
	return o.Domain + "::" + o.Name + " " + o.sig.String()
}

// Registry is the home of overload tables, the implicit-conversion table,
// list shapes and class templates.
type Registry struct {
	cfg     config.Config
	logger  *slog.Logger
	grammar *signature.Grammar
	matcher *matcher.Matcher
	arith   *value.Calculator

	domains     map[string]map[string][]*Overload
	conversions map[string][]*Overload
	shapes      map[string][]*ListShape
	templates   map[string]*Template
}

// New creates a registry with initializer_list predefined. A nil cfg means
// config.Default() and a nil logger means slog.Default().
func New(cfg *config.Config, logger *slog.Logger) (*Registry, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	order, err := matcher.ParseCastOrder(cfg.CastOrder)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		cfg:         *cfg,
		logger:      logger,
		grammar:     signature.Default(),
		arith:       &value.Calculator{Policy: cfg.UnsignedOverflow, Logger: logger},
		domains:     make(map[string]map[string][]*Overload),
		conversions: make(map[string][]*Overload),
		shapes:      make(map[string][]*ListShape),
		templates:   make(map[string]*Template),
	}
	r.matcher = matcher.New(r.grammar, r, matcher.Options{Order: order})

	err = r.DefineTemplate(config.GlobalDomain, config.InitializerListName, 1, func(cls *value.Class) []Field {
		return []Field{
			{Name: config.InitializerListData, Type: value.PointerTo(cls.Args[0])},
			{Name: config.InitializerListSize, Type: value.Arith(value.U64)},
		}
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Config returns the configuration the registry was built with.
func (r *Registry) Config() config.Config { return r.cfg }

// Grammar returns the signature grammar in use.
func (r *Registry) Grammar() *signature.Grammar { return r.grammar }

// Calculator returns the arithmetic evaluator bound to the overflow policy.
func (r *Registry) Calculator() *value.Calculator { return r.arith }

// Register adds an overload. Registering a signature again fills in a
// prototype, is a no-op for a repeated prototype, and fails if both have
// implementations.
func (r *Registry) Register(domain, name, sig string, target Callable) error {
	s, err := r.grammar.CompileString(sig, signature.Function, r.cfg.StrictWildcards)
	if err != nil {
		return err
	}
	if !s.IsFunction() {
		return diagnostics.New(diagnostics.ErrMalformedSignature, "overload %s must have a FUNCTION signature, got %q", name, sig)
	}

	names := r.domains[domain]
	if names == nil {
		names = make(map[string][]*Overload)
		r.domains[domain] = names
	}
	for _, o := range names[name] {
		if o.sig.Key() != s.Key() {
			continue
		}
		switch {
		case target == nil:
		case o.Target != nil:
			return diagnostics.New(diagnostics.ErrDuplicateImplementation, "%s::%s %s is already implemented", domain, name, s)
		default:
			o.Target = target
			r.logger.Debug("prototype implemented", "domain", domain, "name", name, "signature", s.String())
		}
		return nil
	}

	o := &Overload{Domain: domain, Name: name, Target: target, sig: s}
	names[name] = append(names[name], o)
	if name == config.ConstructorName && domain != config.GlobalDomain && len(s.Params()) == 1 {
		r.conversions[domain] = append(r.conversions[domain], o)
	}
	r.logger.Debug("overload registered", "domain", domain, "name", name, "signature", s.String(), "prototype", target == nil)
	return nil
}

// MustRegister is Register for built-in tables; it panics on error.
func (r *Registry) MustRegister(domain, name, sig string, target Callable) {
	if err := r.Register(domain, name, sig, target); err != nil {
		panic(err)
	}
}

// Overloads lists the overloads of name in registration order.
func (r *Registry) Overloads(domain, name string) []*Overload {
	return append([]*Overload(nil), r.domains[domain][name]...)
}

// Constructors returns the one-argument constructors of dst's domain.
func (r *Registry) Constructors(dst *value.Class) []matcher.Candidate {
	list := r.conversions[dst.Domain()]
	out := make([]matcher.Candidate, len(list))
	for i, o := range list {
		out[i] = o
	}
	return out
}

// Shapes returns the list shapes registered for dst's domain.
func (r *Registry) Shapes(dst *value.Class) []matcher.Shape {
	list := r.shapes[dst.Domain()]
	out := make([]matcher.Shape, len(list))
	for i, s := range list {
		out[i] = s
	}
	return out
}

// ClassDomain joins an owner domain and a class identifier.
func ClassDomain(owner, name string) string {
	if owner == config.GlobalDomain || owner == "" {
		return name
	}
	return strings.Join([]string{owner, name}, config.DomainSeparator)
}
