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

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

const (
	murmurM = 0xc6a4a7935bd1e995
	murmurR = 47
	// murmurSeed is 0x8445d61a4e774912 ^ (8*murmurM) mod 2^64, the
	// MurmurHash64A seed state for an 8-byte input.
	murmurSeed = 0xb160ea8090f805ba
)

// mix64 is MurmurHash64A specialized to a single 8-byte block: a fixed
// multiply-xor-shift cascade with good avalanche behavior. It is the default
// hash function for a Map. It is deterministic across process runs and is
// not cryptographically secure.
func mix64(k uint64) uint64 {
	h := uint64(murmurSeed)
	k *= murmurM
	k ^= k >> murmurR
	k *= murmurM
	h ^= k
	h *= murmurM
	h ^= h >> murmurR
	h *= murmurM
	h ^= h >> murmurR
	return h
}

// XXHash64 hashes a key with xxHash over its little-endian encoding. It is
// an alternative to the default mixer, usable via WithHash.
func XXHash64(key uint64) uint64 {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], key)
	return xxhash.Sum64(b[:])
}
