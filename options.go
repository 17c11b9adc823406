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

package chainmap

// Option provides an interface to do work on a Map while it is being
// created.
type Option interface {
	apply(m *Map)
}

type hashOption struct {
	hash func(key uint64) uint64
}

func (op hashOption) apply(m *Map) {
	m.hash = op.hash
}

// WithHash is an option to specify the hash function to use for a Map. The
// function must be deterministic across calls and process runs; its output
// is masked down to a slot index, so it should distribute entropy into the
// low bits. The default is mix64.
func WithHash(hash func(key uint64) uint64) Option {
	return hashOption{hash}
}

// Allocator specifies an interface for allocating and releasing the memory
// used by a Map. The default allocator utilizes Go's builtin new and make
// and allows the GC to reclaim memory.
//
// If the allocator is manually managing memory and requires that entries and
// slots be freed then Map.Close must be called in order to ensure FreeEntry
// and FreeSlots are called for everything still live.
type Allocator interface {
	// AllocEntry should return a zeroed entry, equivalent to new(Entry).
	AllocEntry() *Entry

	// FreeEntry can optionally release the memory associated with the
	// supplied entry that is guaranteed to have been allocated by
	// AllocEntry and to be unlinked from any chain.
	FreeEntry(e *Entry)

	// AllocSlots should return a slice equivalent to make([]*Entry, n). The
	// slice must be zeroed: a nil slot is an empty slot.
	AllocSlots(n int) []*Entry

	// FreeSlots can optionally release the memory associated with the
	// supplied slice that is guaranteed to have been allocated by
	// AllocSlots. By the time FreeSlots is called every entry formerly
	// chained from the slice has been passed to FreeEntry.
	FreeSlots(v []*Entry)
}

type defaultAllocator struct{}

func (defaultAllocator) AllocEntry() *Entry {
	return new(Entry)
}

func (defaultAllocator) FreeEntry(e *Entry) {
}

func (defaultAllocator) AllocSlots(n int) []*Entry {
	return make([]*Entry, n)
}

func (defaultAllocator) FreeSlots(v []*Entry) {
}

type allocatorOption struct {
	allocator Allocator
}

func (op allocatorOption) apply(m *Map) {
	m.allocator = op.allocator
}

// WithAllocator is an option for specifying the Allocator to use for a Map.
func WithAllocator(allocator Allocator) Option {
	return allocatorOption{allocator}
}
