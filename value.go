package main

import (
	"math"
)

// Value is a node on the reverse-mode tape. Data holds the forward
// value and Grad accumulates d(out)/d(Value) after Backward.
type Value struct {
	Data float64
	Grad float64
	// children and local are parallel: local[i] is d(this)/d(children[i])
	children []*Value
	local    []float64
}

// Const returns a leaf with no gradient path back to parameters
func Const(x float64) *Value {
	return &Value{Data: x}
}

func Add(a, b *Value) *Value {
	return &Value{
		Data:     a.Data + b.Data,
		children: []*Value{a, b},
		local:    []float64{1, 1},
	}
}

func Sub(a, b *Value) *Value {
	return &Value{
		Data:     a.Data - b.Data,
		children: []*Value{a, b},
		local:    []float64{1, -1},
	}
}

func Mul(a, b *Value) *Value {
	return &Value{
		Data:     a.Data * b.Data,
		children: []*Value{a, b},
		local:    []float64{b.Data, a.Data},
	}
}

// Scale multiplies a by the constant s
func Scale(s float64, a *Value) *Value {
	return &Value{
		Data:     s * a.Data,
		children: []*Value{a},
		local:    []float64{s},
	}
}

func Pow(a *Value, p float64) *Value {
	return &Value{
		Data:     math.Pow(a.Data, p),
		children: []*Value{a},
		local:    []float64{p * math.Pow(a.Data, p-1)},
	}
}

func Div(a, b *Value) *Value {
	return &Value{
		Data:     a.Data / b.Data,
		children: []*Value{a, b},
		local:    []float64{1 / b.Data, -a.Data / (b.Data * b.Data)},
	}
}

func Exp(a *Value) *Value {
	e := math.Exp(a.Data)
	return &Value{
		Data:     e,
		children: []*Value{a},
		local:    []float64{e},
	}
}

// Sum adds vs in a single node instead of a chain of Adds
func Sum(vs ...*Value) *Value {
	ret := &Value{
		children: vs,
		local:    make([]float64, len(vs)),
	}
	for i, v := range vs {
		ret.Data += v.Data
		ret.local[i] = 1
	}
	return ret
}

// Dot returns sum_i w[i]*x[i] as a single node. It panics if the
// lengths differ.
func Dot(w, x []*Value) *Value {
	if len(w) != len(x) {
		panic("dimension mismatch")
	}
	n := len(w)
	ret := &Value{
		children: make([]*Value, 2*n),
		local:    make([]float64, 2*n),
	}
	for i := range w {
		ret.Data += w[i].Data * x[i].Data
		ret.children[i] = w[i]
		ret.local[i] = x[i].Data
		ret.children[n+i] = x[i]
		ret.local[n+i] = w[i].Data
	}
	return ret
}

// DotConst is Dot for a constant right-hand side, so only w is
// recorded on the tape
func DotConst(w []*Value, x []float64) *Value {
	if len(w) != len(x) {
		panic("dimension mismatch")
	}
	ret := &Value{
		children: w,
		local:    make([]float64, len(w)),
	}
	copy(ret.local, x)
	for i := range w {
		ret.Data += w[i].Data * x[i]
	}
	return ret
}

// ELU is the exponential linear unit with alpha = 1
func ELU(a *Value) *Value {
	return &Value{
		Data:     elu(a.Data),
		children: []*Value{a},
		local:    []float64{eluPrime(a.Data)},
	}
}

// ELUPrime is the derivative of ELU as a tape node, so that input
// tangents carried through an activation stay differentiable with
// respect to the weights feeding it
func ELUPrime(a *Value) *Value {
	return &Value{
		Data:     eluPrime(a.Data),
		children: []*Value{a},
		local:    []float64{eluSecond(a.Data)},
	}
}

func elu(x float64) float64 {
	if x > 0 {
		return x
	}
	return math.Expm1(x)
}

func eluPrime(x float64) float64 {
	if x > 0 {
		return 1
	}
	return math.Exp(x)
}

func eluSecond(x float64) float64 {
	if x > 0 {
		return 0
	}
	return math.Exp(x)
}

// Backward sets out.Grad to 1 and propagates gradients to every node
// reachable from out. Leaves accumulate, so callers zero parameter
// gradients between passes.
func Backward(out *Value) {
	var (
		topo  []*Value
		stack []*Value
		seen  = make(map[*Value]bool)
		// iterative post-order: the tapes here are far too deep for
		// comfortable recursion
		next = make(map[*Value]int)
	)
	stack = append(stack, out)
	seen[out] = true
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		i := next[v]
		if i < len(v.children) {
			next[v] = i + 1
			c := v.children[i]
			if !seen[c] {
				seen[c] = true
				stack = append(stack, c)
			}
			continue
		}
		stack = stack[:len(stack)-1]
		topo = append(topo, v)
	}
	out.Grad = 1
	for i := len(topo) - 1; i >= 0; i-- {
		v := topo[i]
		if v.Grad == 0 {
			continue
		}
		for j, c := range v.children {
			c.Grad += v.local[j] * v.Grad
		}
	}
}
