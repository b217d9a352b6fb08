package pipeline

// Processor is one stage of a pipeline.
type Processor[C any] interface {
	Process(ctx C) C
}

// ProcessorFunc adapts a function to a Processor.
type ProcessorFunc[C any] func(ctx C) C

func (f ProcessorFunc[C]) Process(ctx C) C { return f(ctx) }

// Pipeline represents a sequence of processing stages.
type Pipeline[C any] struct {
	processors []Processor[C]
}

func New[C any](processors ...Processor[C]) *Pipeline[C] {
	return &Pipeline[C]{processors: processors}
}

// Run executes the pipeline.
func (p *Pipeline[C]) Run(initialCtx C) C {
	ctx := initialCtx
	for _, processor := range p.processors {
		ctx = processor.Process(ctx)
		// Every stage runs; stages skip themselves once an earlier stage
		// has recorded an error.
	}
	return ctx
}
