/*
 * Copyright 2022 CloudWeGo Authors
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

package hostimm

import "testing"

func TestIsImmAddSub(t *testing.T) {
    cases := []struct {
        v    uint64
        want bool
    }{
        {0, true},
        {0xFFF, true},
        {0x1000, true},       // 1 << 12, shifted form
        {0xFFF000, true},     // 0xFFF << 12
        {0x1001, false},      // neither plain nor shifted field fits
        {0xFFFFFFFFFFFFF000, false},
    }
    for _, c := range cases {
        if got := IsImmAddSub(c.v); got != c.want {
            t.Errorf("IsImmAddSub(%#x) = %v, want %v", c.v, got, c.want)
        }
    }
}

func TestIsSIMM9RangeAndTSOImm9(t *testing.T) {
    cases := []struct {
        v    int64
        want bool
    }{
        {0, true},
        {255, true},
        {-256, true},
        {256, false},
        {-257, false},
    }
    for _, c := range cases {
        v := uint64(c.v)
        if got := IsSIMM9Range(v); got != c.want {
            t.Errorf("IsSIMM9Range(%d) = %v, want %v", c.v, got, c.want)
        }
        if got := IsTSOImm9(v); got != c.want {
            t.Errorf("IsTSOImm9(%d) = %v, want %v", c.v, got, c.want)
        }
    }
}

func TestIsImmMemory(t *testing.T) {
    if !IsImmMemory(255, 4) {
        t.Error("unscaled window should accept 255 regardless of access size")
    }
    if !IsImmMemory(4092, 4) {
        t.Error("4092 is 1023*4, should fit scaled 12-bit window for access size 4")
    }
    if IsImmMemory(4096*4, 4) {
        t.Error("4096 multiples of 4 exceed the 12-bit scaled window")
    }
    if IsImmMemory(257, 4) {
        t.Error("257 is outside the unscaled window and not a multiple of access size 4")
    }
    if !IsImmMemory(3, 1) {
        t.Error("access size 1 accepts any small non-negative unscaled-equivalent value")
    }
}

func TestHasConsecutiveBits(t *testing.T) {
    if !HasConsecutiveBits(0, 0) {
        t.Error("width 0 is trivially true")
    }
    if !HasConsecutiveBits(0b0000, 4) {
        t.Error("all-zero low bits are consecutive")
    }
    if !HasConsecutiveBits(0b1111, 4) {
        t.Error("all-one low bits are consecutive")
    }
    if HasConsecutiveBits(0b0101, 4) {
        t.Error("alternating bits are not consecutive")
    }
}

func TestIsImmLogical(t *testing.T) {
    if !IsImmLogical(0x1, 32) {
        t.Error("single low bit is a legal rotated run")
    }
    if !IsImmLogical(0x00000003, 32) {
        t.Error("two contiguous low bits is a legal run")
    }
    if IsImmLogical(0, 32) {
        t.Error("all-zero is never a legal logical immediate")
    }
    if IsImmLogical(0xFFFFFFFF, 32) {
        t.Error("all-one is never a legal logical immediate")
    }
    if !IsImmLogical(0xFFFF0000, 32) {
        t.Error("0xFFFF0000 is a rotated contiguous run and should be legal")
    }
    if IsImmLogical(0x12345678, 32) {
        t.Error("0x12345678 has no rotated-contiguous-run representation")
    }
}
