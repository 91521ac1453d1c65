package sound

import (
	"math"
	"math/rand/v2"

	"sona/internal/cell"
)

// Iterator is a mutable, finite-state, single-pass consumer of a Value,
// yielding one clamped sample per call. It is never restarted.
type Iterator interface {
	Next() float64
}

type constIter struct{ v float64 }

func (it *constIter) Next() float64 { return it.v }

type linearIter struct {
	cur  float64
	step float64
}

func (it *linearIter) Next() float64 {
	v := it.cur
	it.cur += it.step
	return clampFinite(v)
}

type expIter struct {
	cur  float64
	step float64
}

func (it *expIter) Next() float64 {
	v := math.Exp(it.cur)
	it.cur += it.step
	return clampFinite(v)
}

// sinIter walks a unit phasor forward by a fixed rotation each sample,
// which is O(1) per sample and numerically stable (no growing phase
// argument passed to math.Sin).
type sinIter struct {
	pRe, pIm         float64
	ratioRe, ratioIm float64
}

func (it *sinIter) Next() float64 {
	v := it.pIm
	nRe := it.pRe*it.ratioRe - it.pIm*it.ratioIm
	nIm := it.pRe*it.ratioIm + it.pIm*it.ratioRe
	it.pRe, it.pIm = nRe, nIm
	return clampFinite(v)
}

// stepIter implements both Begin and End: emit `before` for `countdown`
// samples, then `after` forever.
type stepIter struct {
	countdown int64
	before    float64
	after     float64
}

func (it *stepIter) Next() float64 {
	if it.countdown > 0 {
		it.countdown--
		return it.before
	}
	return it.after
}

// randIter owns a PRNG local to this iterator; state is never shared
// across iterators, even ones built from the same Rand{} value.
type randIter struct {
	r *rand.Rand
}

func (it *randIter) Next() float64 {
	return it.r.Float64()
}

type unaryIter struct {
	fn unaryOp
	x  Iterator
}

func (it *unaryIter) Next() float64 { return clampFinite(it.fn(it.x.Next())) }

type binaryIter struct {
	fn   binaryOp
	l, r Iterator
}

func (it *binaryIter) Next() float64 { return clampFinite(it.fn(it.l.Next(), it.r.Next())) }

type applyIter struct {
	eval  func() float64
	cells []*cell.Cell[float64]
	iters []Iterator
}

func (it *applyIter) Next() float64 {
	for i, child := range it.iters {
		it.cells[i].Set(child.Next())
	}
	return clampFinite(it.eval())
}
