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

import (
    "github.com/archlift/xlate/hostimm"
    "github.com/archlift/xlate/ir"
)

// directionArgIndex is the operand position this container uses for the
// MemCpy/MemSet direction flag; the container does not otherwise care
// about its meaning, only that it can host a Constant or InlineConstant.
const directionArgIndex = 2

// runC3 rewrites eligible Constant operands into InlineConstant nodes, per
// opcode, following the table in §4.3. inlineCache deduplicates equal
// immediates within this single run, as the per-pass cache is scoped to
// one Run, not one block.
func (p *Pass) runC3(fn *ir.Function, stats *RunStats) {
    cache := make(map[uint64]ir.NodeID)

    for _, id := range fn.AllNodeIDs() {
        n := fn.Node(id)
        if n == nil {
            continue
        }
        p.inlineNode(fn, cache, n, stats)
    }
}

func allOnes(size uint8) uint64 {
    if size == 4 {
        return 0xFFFFFFFF
    }
    return 0xFFFFFFFFFFFFFFFF
}

// inlineArg rewrites args[index] into an InlineConstant(value) if it is
// currently a Constant whose raw value satisfies accept, reusing a cached
// node for a repeated value. value lets the caller inline a transformed
// literal (e.g. the shift amount already masked) rather than the raw one.
func (p *Pass) inlineArg(fn *ir.Function, cache map[uint64]ir.NodeID, n *ir.Node, index int, size uint8, accept func(uint64) bool, value func(uint64) uint64) bool {
    if index >= len(n.Args) {
        return false
    }
    c, ok := constOf(fn, n.Args[index])
    if !ok || !accept(c) {
        return false
    }
    v := value(c)
    if cached, found := cache[v]; found {
        fn.ReplaceNodeArgument(n.ID, index, ir.RefTo(cached))
        return true
    }
    fn.SetWriteCursorBefore(n.ID)
    ref := fn.InlineConstant(size, v)
    cache[v] = ref.ID()
    fn.ReplaceNodeArgument(n.ID, index, ref)
    return true
}

func identity(v uint64) uint64 { return v }

func always(uint64) bool { return true }

func isZero(c uint64) bool { return c == 0 }

func (p *Pass) inlineNode(fn *ir.Function, cache map[uint64]ir.NodeID, n *ir.Node, stats *RunStats) {
    inlined := 0

    switch n.Op {
    case ir.OpLshr, ir.OpAshr, ir.OpRor, ir.OpLshl:
        mask := c3ShiftMask(n.Size)
        if p.inlineArg(fn, cache, n, 1, n.Size, always, func(c uint64) uint64 { return c & mask }) {
            inlined++
        }

    case ir.OpAdd, ir.OpAddNZCV, ir.OpAddWithFlags:
        if n.Size >= 4 && p.inlineArg(fn, cache, n, 1, n.Size, hostimm.IsImmAddSub, identity) {
            inlined++
        }

    case ir.OpSub, ir.OpSubNZCV, ir.OpSubWithFlags:
        if p.inlineArg(fn, cache, n, 0, n.Size, isZero, identity) {
            inlined++
        }
        if n.Size >= 4 && p.inlineArg(fn, cache, n, 1, n.Size, hostimm.IsImmAddSub, identity) {
            inlined++
        }

    case ir.OpAdc, ir.OpAdcWithFlags, ir.OpRmifNZCV:
        if p.inlineArg(fn, cache, n, 0, n.Size, isZero, identity) {
            inlined++
        }

    case ir.OpCondAddNZCV, ir.OpCondSubNZCV:
        if p.inlineArg(fn, cache, n, 0, n.Size, isZero, identity) {
            inlined++
        }
        if p.inlineArg(fn, cache, n, 1, n.Size, hostimm.IsImmAddSub, identity) {
            inlined++
        }

    case ir.OpTestNZ:
        w := n.WidthBits()
        if p.inlineArg(fn, cache, n, 1, n.Size, func(c uint64) bool { return hostimm.IsImmLogical(c, w) }, identity) {
            inlined++
        }

    case ir.OpSelect:
        if p.inlineArg(fn, cache, n, 1, n.Size, hostimm.IsImmAddSub, identity) {
            inlined++
        }
        if len(n.Args) >= 4 {
            c2, ok2 := constArg(fn, n, 2)
            c3, ok3 := constArg(fn, n, 3)
            if ok2 && ok3 && (c2 == 1 || c2 == allOnes(n.Size)) && c3 == 0 {
                if p.inlineArg(fn, cache, n, 2, n.Size, always, identity) {
                    inlined++
                }
                if p.inlineArg(fn, cache, n, 3, n.Size, always, identity) {
                    inlined++
                }
            }
        }

    case ir.OpNZCVSelect:
        // Read arg1's value before mutating anything: arg0's eligibility
        // depends on arg1 already being zero, and inlining arg1 first
        // would turn it into an InlineConstant that constArg no longer
        // recognizes as a plain Constant.
        c1, ok1 := constArg(fn, n, 1)
        if ok1 && c1 == 0 {
            if p.inlineArg(fn, cache, n, 1, n.Size, isZero, identity) {
                inlined++
            }
            if c0, ok0 := constArg(fn, n, 0); ok0 && (c0 == 1 || c0 == allOnes(n.Size)) {
                if p.inlineArg(fn, cache, n, 0, n.Size, always, identity) {
                    inlined++
                }
            }
        }

    case ir.OpCondJump:
        if p.inlineArg(fn, cache, n, 1, n.Size, hostimm.IsImmAddSub, identity) {
            inlined++
        }

    case ir.OpExitFunction:
        p.inlineExitFunction(fn, cache, n, stats)
        return

    case ir.OpOr, ir.OpXor, ir.OpAnd, ir.OpAndWithFlags, ir.OpAndn:
        w := n.WidthBits()
        if p.inlineArg(fn, cache, n, 1, n.Size, func(c uint64) bool { return hostimm.IsImmLogical(c, w) }, identity) {
            inlined++
        }

    case ir.OpLoadMem, ir.OpStoreMem, ir.OpPrefetch:
        if n.OffsetType == ir.OffsetSXTX {
            size := n.Size
            if p.inlineArg(fn, cache, n, 1, n.Size, func(c uint64) bool { return hostimm.IsImmMemory(c, size) }, identity) {
                inlined++
            }
        }

    case ir.OpLoadMemTSO, ir.OpStoreMemTSO:
        if p.supportsTSOImm9 && n.OffsetType == ir.OffsetSXTX {
            if p.inlineArg(fn, cache, n, 1, n.Size, hostimm.IsTSOImm9, identity) {
                inlined++
            }
        }

    case ir.OpMemCpy, ir.OpMemSet:
        if p.inlineArg(fn, cache, n, directionArgIndex, n.Size, always, identity) {
            inlined++
        }
    }

    stats.ImmediatesInlined += inlined
}

func (p *Pass) inlineExitFunction(fn *ir.Function, cache map[uint64]ir.NodeID, n *ir.Node, stats *RunStats) {
    if len(n.Args) < 1 {
        return
    }
    if c, ok := constOf(fn, n.Args[0]); ok {
        if cached, found := cache[c]; found {
            fn.ReplaceNodeArgument(n.ID, 0, ir.RefTo(cached))
        } else {
            fn.SetWriteCursorBefore(n.ID)
            ref := fn.InlineConstant(n.Size, c)
            cache[c] = ref.ID()
            fn.ReplaceNodeArgument(n.ID, 0, ref)
        }
        stats.ImmediatesInlined++
        return
    }

    if src := fn.GetOpHeader(n.Args[0]); src != nil && src.Op == ir.OpEntrypointOffset {
        fn.SetWriteCursorBefore(n.ID)
        ref := fn.InlineEntrypointOffset(n.Size, src.Value)
        fn.ReplaceNodeArgument(n.ID, 0, ref)
        stats.ImmediatesInlined++
    }
}
