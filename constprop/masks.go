/*
 * Copyright 2022 ByteDance Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package constprop

import "math/bits"

// widthMask returns the low-(size*8) bit mask enforcing a fold's result
// width (invariant 1 in the data model: computed results never overflow
// their declared width).
func widthMask(size uint8) uint64 {
    bits := size * 8
    if bits == 0 || bits >= 64 {
        return ^uint64(0)
    }
    return uint64(1)<<bits - 1
}

// shiftMask returns the mask applied to a variable or constant shift
// amount before use in C2's own shift folds: 0x3F for 8-byte destinations,
// 0x1F otherwise.
func shiftMask(size uint8) uint64 {
    if size == 8 {
        return 0x3F
    }
    return 0x1F
}

// c3ShiftMask returns the mask C3 applies when inlining a shift amount:
// 31 for destinations of 4 bytes or fewer, 63 for anything wider
// (including 16-byte vector shift destinations, which shiftMask's
// size==8 special case would otherwise mask to 31).
func c3ShiftMask(size uint8) uint64 {
    if size <= 4 {
        return 0x1F
    }
    return 0x3F
}

// signExtend sign-extends the low fromBits bits of v to a full 64-bit
// two's complement value, via the shift-left-then-arithmetic-shift-right
// idiom named in the fold rules for Sbfe.
func signExtend(v uint64, fromBits uint8) uint64 {
    if fromBits == 0 || fromBits >= 64 {
        return v
    }
    shift := 64 - fromBits
    return uint64(int64(v<<shift) >> shift)
}

// bitMask returns the low-bits mask for an arbitrary bit count (used for
// Bfe/Bfi's width field, which is data, not a node's declared Size).
func bitMask(bits uint8) uint64 {
    if bits == 0 {
        return 0
    }
    if bits >= 64 {
        return ^uint64(0)
    }
    return uint64(1)<<bits - 1
}

func popcount1(v uint64) bool {
    return v != 0 && bits.OnesCount64(v) == 1
}

func countTrailingZeros(v uint64) uint8 {
    return uint8(bits.TrailingZeros64(v))
}
