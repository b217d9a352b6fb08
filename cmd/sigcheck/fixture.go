package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/funvibe/cppi/internal/config"
	"github.com/funvibe/cppi/internal/registry"
	"github.com/funvibe/cppi/internal/signature"
	"github.com/funvibe/cppi/internal/value"
)

// Fixture is a set of declarations and the calls to resolve against them.
type Fixture struct {
	Builtins     bool          `yaml:"builtins"`
	Templates    []TemplateDef `yaml:"templates"`
	Declarations []Declaration `yaml:"declarations"`
	Calls        []CallDef     `yaml:"calls"`
}

// TemplateDef declares a generic class whose members take the types of
// its template arguments in order.
type TemplateDef struct {
	Owner   string   `yaml:"owner"`
	Name    string   `yaml:"name"`
	Members []string `yaml:"members"`
}

type Declaration struct {
	Domain    string `yaml:"domain"`
	Name      string `yaml:"name"`
	Signature string `yaml:"signature"`
}

type ArgDef struct {
	Type string `yaml:"type"`
	Ref  string `yaml:"ref"`
}

type CallDef struct {
	Domain   string   `yaml:"domain"`
	Name     string   `yaml:"name"`
	Args     []ArgDef `yaml:"args"`
	Explicit []string `yaml:"explicit"`
}

func domainOrGlobal(d string) string {
	if d == "" {
		return config.GlobalDomain
	}
	return d
}

func loadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture %s: %w", path, err)
	}
	return parseFixture(data, path)
}

func parseFixture(data []byte, path string) (*Fixture, error) {
	var fx Fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parsing fixture %s: %w", path, err)
	}
	return &fx, nil
}

// install registers the fixture's templates and declarations. Declarations
// are prototypes: the tool only resolves, it never runs a target.
func (fx *Fixture) install(r *registry.Registry) error {
	if fx.Builtins {
		if err := r.RegisterBuiltinOperators(); err != nil {
			return err
		}
	}
	for _, t := range fx.Templates {
		if err := r.DefineTemplate(domainOrGlobal(t.Owner), t.Name, len(t.Members), registry.ArgLayout(t.Members...)); err != nil {
			return fmt.Errorf("template %s: %w", t.Name, err)
		}
	}
	for _, d := range fx.Declarations {
		if err := r.Register(domainOrGlobal(d.Domain), d.Name, d.Signature, nil); err != nil {
			return fmt.Errorf("declaration %s: %w", d.Name, err)
		}
	}
	return nil
}

func parseRef(s string) (signature.Ref, error) {
	switch strings.ToLower(s) {
	case "", "none", "value":
		return signature.RefNone, nil
	case "mut", "mutable", "lref":
		return signature.RefMutable, nil
	case "const", "clref":
		return signature.RefConst, nil
	}
	return 0, fmt.Errorf("unknown reference kind %q", s)
}

func (c CallDef) args(g *signature.Grammar) ([]signature.Arg, []value.Type, error) {
	args := make([]signature.Arg, len(c.Args))
	for i, a := range c.Args {
		t, err := g.ParseType(strings.Fields(a.Type))
		if err != nil {
			return nil, nil, fmt.Errorf("argument %d: %w", i, err)
		}
		ref, err := parseRef(a.Ref)
		if err != nil {
			return nil, nil, fmt.Errorf("argument %d: %w", i, err)
		}
		args[i] = signature.Arg{Type: t, Ref: ref}
	}
	explicit := make([]value.Type, len(c.Explicit))
	for i, e := range c.Explicit {
		t, err := g.ParseType(strings.Fields(e))
		if err != nil {
			return nil, nil, fmt.Errorf("explicit argument %d: %w", i, err)
		}
		explicit[i] = t
	}
	return args, explicit, nil
}
