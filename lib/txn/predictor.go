//Copyright (c) 2020 Uber Technologies, Inc.
//
//Licensed under the Uber Non-Commercial License (the "License");
//you may not use this file except in compliance with the License.
//You may obtain a copy of the License at the root directory of this project.
//
//See the License for the specific language governing permissions and
//limitations under the License.
package txn

import (
	"go.uber.org/atomic"
)

var weightLowerBound int32 = -16
var weightUpperBound int32 = 15

const perceptronEntry = (1 << 12) // Must be a power of 2
const perceptronEntryMask = (perceptronEntry - 1)
const weightThreshold = 3
const slowpathRepeatThreshold = 50000 // if we are using the slow path for a long time, retry HTM

type cell struct {
	_          [cacheLinePadSize]byte // Prevents false sharing.
	weightIP   atomic.Int32
	weightLock atomic.Int32
	sleep      atomic.Int32
	_          [cacheLinePadSize]byte // Prevents false sharing.
}

// Predictor learns, per call site and executor, whether hardware attempts
// tend to commit. Sites whose attempts keep exhausting their policy are sent
// straight to the fallback until they have taken it slowpathRepeatThreshold
// times, after which hardware attempts are tried again.
//
// Updates are racy on purpose; a lost update only nudges a weight.
type Predictor struct {
	weight [perceptronEntry]cell
}

// NewPredictor returns a Predictor that initially favours hardware attempts.
func NewPredictor() *Predictor {
	p := &Predictor{}
	for i := range p.weight {
		p.weight[i].weightIP.Store(3)
		p.weight[i].weightLock.Store(3)
	}
	return p
}

func reInit(c1, c2 *cell) {
	c1.weightIP.Store(2)
	c2.weightLock.Store(2)
	c1.sleep.Store(0)
}

func getPerceptronIndex(site uintptr) uint64 {
	return ((uint64)((site)>>3) & (perceptronEntryMask))
}

func getComposedIndex(site, owner uintptr) uint64 {
	return ((uint64)((site^owner)>>3) & (perceptronEntryMask))
}

func bounded(weight int32, inc int32) int32 {
	retVal := weight + inc
	if retVal >= weightUpperBound {
		return weightUpperBound
	}

	if retVal <= weightLowerBound {
		return weightLowerBound
	}

	return retVal
}

func (p *Predictor) cells(site, owner uintptr) (*cell, *cell) {
	return &p.weight[getPerceptronIndex(site)], &p.weight[getComposedIndex(site, owner)]
}

// UseHTM reports whether the site should try hardware attempts at all.
func (p *Predictor) UseHTM(site, owner uintptr) bool {
	entry, entry2 := p.cells(site, owner)
	if entry.sleep.Load() > slowpathRepeatThreshold {
		reInit(entry, entry2)
	}
	if entry.weightIP.Load()+entry2.weightLock.Load() < weightThreshold {
		entry.sleep.Inc()
		return false
	}
	return true
}

// Committed records a hardware commit for the site.
func (p *Predictor) Committed(site, owner uintptr) {
	entry, entry2 := p.cells(site, owner)
	entry.weightIP.Store(bounded(entry.weightIP.Load(), 1))
	entry2.weightLock.Store(bounded(entry2.weightLock.Load(), 1))
}

// Exhausted records that the site ran out of attempts and fell back.
func (p *Predictor) Exhausted(site, owner uintptr) {
	entry, entry2 := p.cells(site, owner)
	entry.sleep.Inc()
	entry.weightIP.Store(bounded(entry.weightIP.Load(), -2))
	entry2.weightLock.Store(bounded(entry2.weightLock.Load(), -2))
}
