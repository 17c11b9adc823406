// Copyright 2025 The Chainmap Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package chainmap provides a fixed-capacity hash map from uint64 keys to
// uint64 values that resolves collisions by chaining. It is intended as a
// building block for storage engines that want full control over table
// sizing rather than as a general-purpose replacement for Go's builtin map.
//
// # Design
//
// The table is a single array of slots where each slot holds the head of a
// singly linked chain of entries. The slot for a key is hash(key) & mask
// where mask is the table size minus one; the table size is a power of two
// fixed at construction, so the mask trick is always valid. The table never
// grows or shrinks: the load factor is entirely the caller's problem, and a
// table sized well below its working set simply degrades to longer chains.
//
// Inserting a key that is not present links a new entry at the head of its
// slot's chain. Existing entries are never moved or copied, only relinked at
// the slot-pointer level, so an entry stays put for its entire lifetime.
//
// Entries are allocated and released through a pluggable Allocator. The
// default allocator uses Go's builtin new/make and lets the GC reclaim
// memory, in which case calling Close is optional. An allocator that manages
// memory manually relies on Close walking every chain and releasing every
// live entry before the slot array itself is released; see the Allocator
// documentation.
package chainmap

import (
	"fmt"
	"math/bits"
	"strings"
)

// Entry holds a key, a value, and the link to the next entry in its slot's
// chain. Entries are created by Put and released by Delete or Close; no
// entry is ever reachable from two slots or two chain positions at once.
type Entry struct {
	key   uint64
	value uint64
	next  *Entry
}

// Map is a fixed-capacity hash map from uint64 keys to uint64 values with
// Put, Get, Delete, and All operations. Collisions are resolved by chaining:
// each slot owns a singly linked list of the entries that hash to it.
//
// A Map is NOT goroutine-safe. Callers that share a Map across goroutines
// must provide their own synchronization; concurrent mutation without it is
// a data race.
type Map struct {
	// The hash function applied to keys. Defaults to a MurmurHash64A-style
	// finalizer; see WithHash.
	hash func(key uint64) uint64
	// The allocator to use for the slot array and entries.
	allocator Allocator
	// slots is tableSize in length, where tableSize is the power of two
	// chosen at construction. Each element is nil or the head of that
	// slot's chain.
	slots []*Entry
	// mask is tableSize-1 and maps a hash value to a slot index via
	// bitwise AND.
	mask uint64
	// The number of live entries across all chains.
	used int
}

// tableSize returns 1 << bits.Len64(sizeHint). Note that an exact power of
// two rounds up to the next one (16 -> 32): the sizing was ported from a
// floor-based bit-width computation and always rounds strictly upward. A
// sizeHint of 0 yields a single slot.
func tableSize(sizeHint uint64) uint64 {
	return 1 << bits.Len64(sizeHint)
}

// New constructs a Map with capacity for at least sizeHint entries before
// chains begin to exceed one entry on average. The table size is fixed for
// the life of the Map: no operation ever triggers a resize. The zero value
// for a Map is not usable.
func New(sizeHint uint64, options ...Option) *Map {
	m := &Map{
		hash:      mix64,
		allocator: defaultAllocator{},
	}

	for _, op := range options {
		op.apply(m)
	}

	n := tableSize(sizeHint)
	// AllocSlots must return zeroed memory: every slot starts empty.
	m.slots = m.allocator.AllocSlots(int(n))
	m.mask = n - 1

	m.checkInvariants()
	return m
}

// Close releases every live entry and then the slot array back to the Map's
// allocator. The entries must be walked before the slot array goes away:
// with a manually managed allocator, releasing the array first would leak
// every entry still chained from it. It is unnecessary to close a Map using
// the default allocator. It is invalid to use a Map after it has been
// closed, though Close itself is idempotent.
func (m *Map) Close() {
	if m.slots == nil {
		return
	}
	for i, e := range m.slots {
		for e != nil {
			next := e.next
			m.release(e)
			e = next
		}
		m.slots[i] = nil
	}
	m.allocator.FreeSlots(m.slots)
	m.slots = nil
	m.allocator = nil
	m.used = 0
}

// Put inserts an entry into the map, overwriting the value in place if an
// entry with the same key already exists. It returns true if a new entry was
// inserted and false if an existing entry was updated.
func (m *Map) Put(key, value uint64) bool {
	// Put is a chain scan composed with a head insertion. If the scan finds
	// the key we overwrite its value where it sits; an update never
	// relocates the entry.
	i := m.hash(key) & m.mask
	for e := m.slots[i]; e != nil; e = e.next {
		if e.key == key {
			e.value = value
			m.checkInvariants()
			return false
		}
	}

	e := m.allocator.AllocEntry()
	e.key = key
	e.value = value
	// The new entry must take the current head as its next link before the
	// slot is redirected at it. Writing the slot first would orphan every
	// entry already chained there.
	e.next = m.slots[i]
	m.slots[i] = e
	m.used++

	m.checkInvariants()
	return true
}

// Get retrieves the value for the specified key, returning ok=false if the
// key is not present. Get has no side effects.
func (m *Map) Get(key uint64) (value uint64, ok bool) {
	for e := m.slots[m.hash(key)&m.mask]; e != nil; e = e.next {
		if e.key == key {
			return e.value, true
		}
	}
	return 0, false
}

// Delete removes the entry for the specified key, returning whether an entry
// was removed. Deleting a key that is not present is a no-op reported via
// the return value, not an error.
func (m *Map) Delete(key uint64) bool {
	i := m.hash(key) & m.mask
	head := m.slots[i]
	if head == nil {
		return false
	}

	// Unlinking the head only moves the slot pointer.
	if head.key == key {
		m.slots[i] = head.next
		m.release(head)
		m.used--
		m.checkInvariants()
		return true
	}

	// Interior entries need a trailing pointer so the predecessor can be
	// spliced over the match.
	prev := head
	for e := head.next; e != nil; e = e.next {
		if e.key == key {
			prev.next = e.next
			m.release(e)
			m.used--
			m.checkInvariants()
			return true
		}
		prev = e
	}
	return false
}

// All calls yield sequentially for each key and value present in the map. If
// yield returns false, All stops the iteration. The iteration order is
// unspecified and the map must not be mutated during iteration.
func (m *Map) All(yield func(key, value uint64) bool) {
	for _, e := range m.slots {
		for ; e != nil; e = e.next {
			if !yield(e.key, e.value) {
				return
			}
		}
	}
}

// Len returns the number of entries in the map.
func (m *Map) Len() int {
	return m.used
}

// capacity returns the number of slots in the table.
func (m *Map) capacity() int {
	return len(m.slots)
}

// release clears an entry and returns it to the allocator. The entry must
// already be unlinked from its chain.
func (m *Map) release(e *Entry) {
	*e = Entry{}
	m.allocator.FreeEntry(e)
}

func (m *Map) checkInvariants() {
	if invariants {
		var used int
		for i, e := range m.slots {
			seen := make(map[uint64]struct{})
			for ; e != nil; e = e.next {
				if p := m.hash(e.key) & m.mask; p != uint64(i) {
					panic(fmt.Sprintf("invariant failed: key %d chained at slot %d, but hashes to slot %d\n%s",
						e.key, i, p, m.debugString()))
				}
				if _, ok := seen[e.key]; ok {
					panic(fmt.Sprintf("invariant failed: key %d occurs twice in slot %d's chain\n%s",
						e.key, i, m.debugString()))
				}
				seen[e.key] = struct{}{}
				used++
			}
		}
		if used != m.used {
			panic(fmt.Sprintf("invariant failed: found %d chained entries, but used count is %d\n%s",
				used, m.used, m.debugString()))
		}
	}
}

func (m *Map) debugString() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "table-size=%d  used=%d\n", len(m.slots), m.used)
	for i, e := range m.slots {
		if e == nil {
			continue
		}
		fmt.Fprintf(&buf, "  %4d:", i)
		for ; e != nil; e = e.next {
			fmt.Fprintf(&buf, " %d=%d", e.key, e.value)
		}
		buf.WriteString("\n")
	}
	return buf.String()
}
