package indicators

import (
	"fmt"

	"indicator-engine/internal/analysis/series"
	apperrors "indicator-engine/internal/errors"
)

// Ref addresses one output slot of a node in a composite graph.
type Ref struct {
	node int
	slot int
}

type nodeOp int

const (
	opInput nodeOp = iota
	opApply
	opMap
	opLag
)

type node struct {
	op     nodeOp
	input  int
	child  Indicator
	fn     func(x []float64) float64
	policy Degenerate
	lag    int
	args   []Ref
	slots  int

	// first valid absolute index and trailing bars needed, summed along the
	// deepest path from the raw inputs
	lookback    int
	lookforward int
}

// pinned reports whether the node's values depend on the bar it starts at:
// a child that recalculates from its lookback, or a Map that holds previous
// outputs. Pinned nodes always start at their own lookback.
func (n node) pinned() bool {
	switch n.op {
	case opApply:
		return n.child.Descriptor().RecalcAll
	case opMap:
		return n.policy == HoldPrevious
	}
	return false
}

// Builder assembles a composite indicator. Nodes can only reference nodes
// created before them, so the graph is acyclic and node order is a valid
// evaluation order.
type Builder struct {
	desc    Descriptor
	params  Params
	nodes   []node
	outputs []Ref
	err     error
}

func newBuilder(desc Descriptor, params Params) *Builder {
	return &Builder{desc: desc, params: params}
}

func (b *Builder) add(n node) int {
	b.nodes = append(b.nodes, n)
	return len(b.nodes) - 1
}

func (b *Builder) fail(format string, args ...interface{}) {
	if b.err == nil {
		b.err = apperrors.Wrapf(apperrors.ErrConfigInvalid, "%s: %s", b.desc.Name, fmt.Sprintf(format, args...))
	}
}

func (b *Builder) checkRefs(refs []Ref) bool {
	for _, r := range refs {
		if r.node < 0 || r.node >= len(b.nodes) || r.slot < 0 || r.slot >= b.nodes[r.node].slots {
			b.fail("reference to undefined node %d slot %d", r.node, r.slot)
			return false
		}
	}
	return true
}

func (b *Builder) spanOf(refs []Ref) (lookback, lookforward int) {
	for _, r := range refs {
		n := b.nodes[r.node]
		if n.lookback > lookback {
			lookback = n.lookback
		}
		if n.lookforward > lookforward {
			lookforward = n.lookforward
		}
	}
	return lookback, lookforward
}

// Child constructs a sub-indicator for the graph. A construction failure is
// reported by Build; the returned placeholder keeps the graph well formed.
func (b *Builder) Child(kind Kind, values ...float64) Indicator {
	ind, err := child(kind, values...)
	if err != nil {
		if b.err == nil {
			b.err = apperrors.Wrapf(err, "%s", b.desc.Name)
		}
		return &simple{base: base{desc: registry[kind].desc}}
	}
	return ind
}

// Input references raw input series k.
func (b *Builder) Input(k int) Ref {
	if k < 0 || k >= len(b.desc.Inputs) {
		b.fail("input %d outside declared inputs", k)
	}
	return Ref{node: b.add(node{op: opInput, input: k, slots: 1})}
}

// Apply evaluates child over the referenced series and returns one reference
// per child output.
func (b *Builder) Apply(child Indicator, args ...Ref) []Ref {
	refs := make([]Ref, len(child.Descriptor().Outputs))
	if !b.checkRefs(args) {
		return refs
	}
	if want := len(child.Descriptor().Inputs); want != len(args) {
		b.fail("%s takes %d inputs, got %d", child.Descriptor().Name, want, len(args))
		return refs
	}
	lb, lf := b.spanOf(args)
	id := b.add(node{
		op:          opApply,
		child:       child,
		args:        args,
		slots:       len(refs),
		lookback:    lb + child.Lookback(),
		lookforward: lf + child.Lookforward(),
	})
	for i := range refs {
		refs[i] = Ref{node: id, slot: i}
	}
	return refs
}

// Map combines the referenced series bar by bar. Non-finite results go
// through policy unless it is NotApplicable.
func (b *Builder) Map(policy Degenerate, fn func(x []float64) float64, args ...Ref) Ref {
	if !b.checkRefs(args) {
		return Ref{}
	}
	lb, lf := b.spanOf(args)
	return Ref{node: b.add(node{
		op:          opMap,
		fn:          fn,
		policy:      policy,
		args:        args,
		slots:       1,
		lookback:    lb,
		lookforward: lf,
	})}
}

// Lag shifts ref n bars forward: the value at bar i is ref at bar i-n.
func (b *Builder) Lag(ref Ref, n int) Ref {
	if !b.checkRefs([]Ref{ref}) {
		return Ref{}
	}
	if n < 0 {
		b.fail("negative lag %d", n)
		return Ref{}
	}
	src := b.nodes[ref.node]
	lf := src.lookforward - n
	if lf < 0 {
		lf = 0
	}
	return Ref{node: b.add(node{
		op:          opLag,
		lag:         n,
		args:        []Ref{ref},
		slots:       1,
		lookback:    src.lookback + n,
		lookforward: lf,
	})}
}

// Output declares the next output of the composite, in Descriptor.Outputs
// order.
func (b *Builder) Output(ref Ref) {
	if b.checkRefs([]Ref{ref}) {
		b.outputs = append(b.outputs, ref)
	}
}

// Build validates the graph and fixes the composite's lookback.
func (b *Builder) Build() (*Composite, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.outputs) != len(b.desc.Outputs) {
		return nil, apperrors.Wrapf(apperrors.ErrConfigInvalid, "%s: declares %d outputs, graph defines %d",
			b.desc.Name, len(b.desc.Outputs), len(b.outputs))
	}
	lb, lf := b.spanOf(b.outputs)
	desc := b.desc
	for _, n := range b.nodes {
		if n.pinned() {
			desc.RecalcAll = true
		}
	}
	return &Composite{
		base:        base{desc: desc, params: b.params},
		nodes:       b.nodes,
		outputs:     b.outputs,
		lookback:    lb,
		lookforward: lf,
	}, nil
}

// Composite is an indicator evaluated by delegating to the child indicators
// of its graph.
type Composite struct {
	base
	nodes       []node
	outputs     []Ref
	lookback    int
	lookforward int
}

func (c *Composite) Lookback() int    { return c.lookback }
func (c *Composite) Lookforward() int { return c.lookforward }

// Children returns the indicators the composite delegates to.
func (c *Composite) Children() []Indicator {
	var out []Indicator
	for _, n := range c.nodes {
		if n.op == opApply {
			out = append(out, n.child)
		}
	}
	return out
}

// Evaluate clamps the request, derives the window each node must produce so
// its consumers have the history they need, then runs the nodes in order.
func (c *Composite) Evaluate(req Request) (series.Result, error) {
	rng, ok, err := prepare(c, req)
	if err != nil {
		return series.Result{}, err
	}
	if !ok {
		return c.empty(rng), nil
	}

	from := rng
	if c.desc.RecalcAll {
		from.Start = c.lookback
	}
	need := c.requiredRanges(from)
	spans := make([][]series.Span, len(c.nodes))
	for id, n := range c.nodes {
		if need[id].Empty() {
			continue
		}
		out, err := c.evalNode(n, need[id], req.Inputs, spans)
		if err != nil {
			return series.Result{}, apperrors.Wrapf(err, "%s", c.desc.Name)
		}
		spans[id] = out
	}

	ranges := []series.Range{rng}
	for _, ref := range c.outputs {
		ranges = append(ranges, spans[ref.node][ref.slot].Range())
	}
	cov := series.Intersect(ranges...)
	if cov.Empty() {
		return c.empty(rng), nil
	}
	res := series.Result{Begin: cov.Start, Outputs: make([]series.Series, len(c.outputs))}
	for i, ref := range c.outputs {
		sp := spans[ref.node][ref.slot]
		res.Outputs[i] = sp.Values.Window(cov.Start-sp.Begin, cov.End-sp.Begin).Clone()
	}
	return res, nil
}

// requiredRanges walks the graph from the outputs back to the inputs. A node
// consumed by a child with lookback L from bar s must itself start at s-L.
// Pinned nodes are widened back to their own lookback first.
func (c *Composite) requiredRanges(rng series.Range) []series.Range {
	need := make([]series.Range, len(c.nodes))
	for i := range need {
		need[i] = series.Range{Start: 0, End: -1}
	}
	widen := func(id int, r series.Range) {
		if need[id].Empty() {
			need[id] = r
			return
		}
		if r.Start < need[id].Start {
			need[id].Start = r.Start
		}
		if r.End > need[id].End {
			need[id].End = r.End
		}
	}
	for _, ref := range c.outputs {
		widen(ref.node, rng)
	}
	for id := len(c.nodes) - 1; id >= 0; id-- {
		r := need[id]
		if r.Empty() {
			continue
		}
		n := c.nodes[id]
		if n.pinned() && r.Start > n.lookback {
			r.Start = n.lookback
			need[id] = r
		}
		switch n.op {
		case opApply:
			r = series.Range{Start: r.Start - n.child.Lookback(), End: r.End + n.child.Lookforward()}
		case opLag:
			r = series.Range{Start: r.Start - n.lag, End: r.End - n.lag}
		}
		for _, a := range n.args {
			widen(a.node, r)
		}
	}
	return need
}

func (c *Composite) evalNode(n node, need series.Range, inputs []series.Series, spans [][]series.Span) ([]series.Span, error) {
	switch n.op {
	case opInput:
		return []series.Span{series.SpanOf(inputs[n.input])}, nil

	case opApply:
		args := make([]series.Span, len(n.args))
		ranges := make([]series.Range, len(n.args))
		for i, a := range n.args {
			args[i] = spans[a.node][a.slot]
			ranges[i] = args[i].Range()
		}
		cov := series.Intersect(ranges...)
		if cov.Empty() {
			return emptySpans(need.Start, n.slots), nil
		}
		childInputs := make([]series.Series, len(args))
		for i, sp := range args {
			childInputs[i] = sp.Values.Window(cov.Start-sp.Begin, cov.End-sp.Begin)
		}
		view := series.Span{Begin: cov.Start, Values: childInputs[0]}
		res, err := n.child.Evaluate(Request{Inputs: childInputs, Range: view.Rebase(need)})
		if err != nil {
			return nil, err
		}
		res = view.Shift(res)
		out := make([]series.Span, n.slots)
		for i := range out {
			if res.Len() == 0 {
				out[i] = series.Span{Begin: need.Start}
				continue
			}
			out[i] = series.SpanFrom(res, i)
		}
		return out, nil

	case opMap:
		args := make([]series.Span, len(n.args))
		ranges := []series.Range{need}
		for i, a := range n.args {
			args[i] = spans[a.node][a.slot]
			ranges = append(ranges, args[i].Range())
		}
		cov := series.Intersect(ranges...)
		if cov.Empty() {
			return emptySpans(need.Start, 1), nil
		}
		values := make(series.Series, cov.Len())
		x := make([]float64, len(args))
		prev := nan()
		for i := cov.Start; i <= cov.End; i++ {
			for k, sp := range args {
				x[k] = sp.At(i)
			}
			v := n.fn(x)
			if n.policy != NotApplicable {
				v = n.policy.apply(v, prev)
			}
			values[i-cov.Start] = v
			prev = v
		}
		return []series.Span{{Begin: cov.Start, Values: values}}, nil

	case opLag:
		src := spans[n.args[0].node][n.args[0].slot]
		shifted := series.Span{Begin: src.Begin + n.lag, Values: src.Values}
		cov := series.Intersect(shifted.Range(), need)
		if cov.Empty() {
			return emptySpans(need.Start, 1), nil
		}
		return []series.Span{{Begin: cov.Start, Values: shifted.Values.Window(cov.Start-shifted.Begin, cov.End-shifted.Begin)}}, nil
	}
	return nil, apperrors.Wrapf(apperrors.ErrConfigInvalid, "unknown node op %d", n.op)
}

func emptySpans(begin, n int) []series.Span {
	out := make([]series.Span, n)
	for i := range out {
		out[i] = series.Span{Begin: begin}
	}
	return out
}
