package registry

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/funvibe/cppi/internal/config"
	"github.com/funvibe/cppi/internal/diagnostics"
	"github.com/funvibe/cppi/internal/resume"
	"github.com/funvibe/cppi/internal/value"
)

const (
	binaryOperatorSignature = "!Arithmetic FUNCTION ?0 ( ?0 ?0 )"
	unaryOperatorSignature  = "!Arithmetic FUNCTION ?0 ( ?0 )"
)

var binaryOperators = []struct {
	symbol string
	op     value.Op
}{
	{"+", value.OpAdd},
	{"-", value.OpSub},
	{"*", value.OpMul},
	{"/", value.OpDiv},
	{"%", value.OpMod},
}

// RegisterBuiltinOperators registers the arithmetic operators in the
// global domain. Mixed operand kinds are promoted by the matcher before
// the operator runs.
func (r *Registry) RegisterBuiltinOperators() error {
	for _, b := range binaryOperators {
		op := b.op
		err := r.Register(config.GlobalDomain, config.OperatorName(b.symbol), binaryOperatorSignature,
			func(_ *Call, args []*value.Variable) step {
				return resume.From(r.arith.Binary(op, args[0], args[1]))
			})
		if err != nil {
			return err
		}
	}
	return r.Register(config.GlobalDomain, config.OperatorName("-"), unaryOperatorSignature,
		func(_ *Call, args []*value.Variable) step {
			return resume.From(r.arith.Negate(args[0]))
		})
}

// ReadInput suspends until the host supplies a line and parses it.
func ReadInput(prompt string, parse func(string) (*value.Variable, error)) step {
	return resume.Await(prompt, func(in string) step {
		return resume.From(parse(in))
	})
}

// ReadArith reads a number of kind k. Integers outside the range of k are
// handled by the overflow policy.
func (r *Registry) ReadArith(prompt string, k value.ArithKind) step {
	return ReadInput(prompt, func(in string) (*value.Variable, error) {
		s := strings.TrimSpace(in)
		if k.Float() {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, diagnostics.New(diagnostics.ErrTypeMismatch, "%q is not a %s", s, k)
			}
			return value.NewFloat(k, f), nil
		}
		n, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, diagnostics.New(diagnostics.ErrTypeMismatch, "%q is not a %s", s, k)
		}
		fitted, err := r.arith.Fit(k, n)
		if err != nil {
			return nil, err
		}
		return value.NewBig(k, fitted), nil
	})
}
