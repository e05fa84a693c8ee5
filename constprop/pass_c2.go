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

// runC2 performs the whole-function algebraic-fold and peephole sweep.
// Nodes are visited over a function-wide, program-order snapshot: C2's
// rewrites redirect uses of nodes not yet visited (via
// ReplaceAllUsesWith), and the snapshot keeps that from perturbing which
// nodes get visited or in what order.
func (p *Pass) runC2(fn *ir.Function, stats *RunStats) {
    for _, id := range fn.AllNodeIDs() {
        n := fn.Node(id)
        if n == nil {
            continue
        }
        p.foldNode(fn, n, stats)
    }
}

func constArg(fn *ir.Function, n *ir.Node, i int) (uint64, bool) {
    if i >= len(n.Args) {
        return 0, false
    }
    return constOf(fn, n.Args[i])
}

func constOf(fn *ir.Function, ref ir.Ref) (uint64, bool) {
    ok, v := fn.IsValueConstant(ref)
    return v, ok
}

func eliminate(fn *ir.Function, n *ir.Node, replacement ir.NodeID, stats *RunStats) {
    fn.ReplaceAllUsesWith(n.ID, replacement)
    stats.NodesEliminated++
}

var flipAddSub = map[ir.Op]ir.Op{
    ir.OpAdd:           ir.OpSub,
    ir.OpSub:           ir.OpAdd,
    ir.OpAddWithFlags:  ir.OpSubWithFlags,
    ir.OpSubWithFlags:  ir.OpAddWithFlags,
}

func (p *Pass) foldNode(fn *ir.Function, n *ir.Node, stats *RunStats) {
    switch n.Op {
    case ir.OpAdd, ir.OpSub, ir.OpAddWithFlags, ir.OpSubWithFlags:
        p.foldAddSub(fn, n, stats)
    case ir.OpSubShift:
        p.foldSubShift(fn, n, stats)
    case ir.OpAnd:
        p.foldAnd(fn, n, stats)
    case ir.OpOr:
        p.foldOr(fn, n, stats)
    case ir.OpOrLshl, ir.OpOrLshr:
        p.foldOrShift(fn, n, stats)
    case ir.OpXor:
        p.foldXor(fn, n, stats)
    case ir.OpNeg:
        p.foldNeg(fn, n, stats)
    case ir.OpLshl, ir.OpLshr:
        p.foldShift(fn, n, stats)
    case ir.OpBfe:
        p.foldBfe(fn, n, stats)
    case ir.OpSbfe:
        p.foldSbfe(fn, n, stats)
    case ir.OpBfi:
        p.foldBfi(fn, n, stats)
    case ir.OpMul:
        p.foldMul(fn, n, stats)
    case ir.OpVmov:
        p.foldVmov(fn, n, stats)
    default:
        // every other opcode is left untouched.
    }
}

func (p *Pass) foldAddSub(fn *ir.Function, n *ir.Node, stats *RunStats) {
    if len(n.Args) < 2 {
        return
    }
    c0, ok0 := constArg(fn, n, 0)
    c1, ok1 := constArg(fn, n, 1)
    mask := widthMask(n.Size)

    if ok0 && ok1 {
        var result uint64
        switch n.Op {
        case ir.OpAdd, ir.OpAddWithFlags:
            result = c0 + c1
        default:
            result = c0 - c1
        }
        fn.ReplaceWithConstant(n.ID, result&mask)
        stats.ConstantsFolded++
        return
    }

    if !ok1 {
        return
    }
    if hostimm.IsImmAddSub(c1) {
        return
    }
    neg := (^c1 + 1) & mask
    if !hostimm.IsImmAddSub(neg) {
        return
    }
    flipped, ok := flipAddSub[n.Op]
    if !ok {
        return
    }
    n.Op = flipped
    fn.SetWriteCursorBefore(n.ID)
    newConst := fn.Constant(n.Size, neg)
    fn.ReplaceNodeArgument(n.ID, 1, newConst)
    stats.OpcodesFlipped++
}

func (p *Pass) foldSubShift(fn *ir.Function, n *ir.Node, stats *RunStats) {
    if n.Shift != ir.ShiftLSL || len(n.Args) < 2 {
        return
    }
    c0, ok0 := constArg(fn, n, 0)
    c1, ok1 := constArg(fn, n, 1)
    if !ok0 || !ok1 {
        return
    }
    result := (c0 - (c1 << n.ShiftAmount)) & widthMask(n.Size)
    fn.ReplaceWithConstant(n.ID, result)
    stats.ConstantsFolded++
}

func (p *Pass) foldAnd(fn *ir.Function, n *ir.Node, stats *RunStats) {
    if len(n.Args) < 2 {
        return
    }
    c0, ok0 := constArg(fn, n, 0)
    c1, ok1 := constArg(fn, n, 1)

    if ok0 && ok1 {
        fn.ReplaceWithConstant(n.ID, (c0&c1)&widthMask(n.Size))
        stats.ConstantsFolded++
        return
    }

    if ok1 && c1 == 1 {
        if left := fn.GetOpHeader(n.Args[0]); left != nil && left.Op == ir.OpSelect && len(left.Args) >= 4 {
            c2, ok2 := constArg(fn, left, 2)
            c3, ok3 := constArg(fn, left, 3)
            if ok2 && ok3 && c2 == 1 && c3 == 0 {
                eliminate(fn, n, left.ID, stats)
                return
            }
        }
    }

    if n.Args[0].Valid() && n.Args[1].Valid() && n.Args[0].ID() == n.Args[1].ID() {
        eliminate(fn, n, n.Args[0].ID(), stats)
    }
}

func (p *Pass) foldOr(fn *ir.Function, n *ir.Node, stats *RunStats) {
    if len(n.Args) < 2 {
        return
    }
    c0, ok0 := constArg(fn, n, 0)
    c1, ok1 := constArg(fn, n, 1)

    if ok0 && ok1 {
        fn.ReplaceWithConstant(n.ID, (c0|c1)&widthMask(n.Size))
        stats.ConstantsFolded++
        return
    }

    if n.Args[0].Valid() && n.Args[1].Valid() && n.Args[0].ID() == n.Args[1].ID() {
        eliminate(fn, n, n.Args[0].ID(), stats)
    }
}

func (p *Pass) foldOrShift(fn *ir.Function, n *ir.Node, stats *RunStats) {
    if len(n.Args) < 2 {
        return
    }
    c0, ok0 := constArg(fn, n, 0)
    c1, ok1 := constArg(fn, n, 1)
    if !ok0 || !ok1 {
        return
    }
    var shifted uint64
    if n.Op == ir.OpOrLshl {
        shifted = c1 << n.ShiftAmount
    } else {
        shifted = c1 >> n.ShiftAmount
    }
    fn.ReplaceWithConstant(n.ID, (c0|shifted)&widthMask(n.Size))
    stats.ConstantsFolded++
}

func (p *Pass) foldXor(fn *ir.Function, n *ir.Node, stats *RunStats) {
    if len(n.Args) < 2 {
        return
    }
    c0, ok0 := constArg(fn, n, 0)
    c1, ok1 := constArg(fn, n, 1)

    if ok0 && ok1 {
        fn.ReplaceWithConstant(n.ID, (c0^c1)&widthMask(n.Size))
        stats.ConstantsFolded++
        return
    }

    if n.Args[0].Valid() && n.Args[1].Valid() && n.Args[0].ID() == n.Args[1].ID() {
        fn.ReplaceWithConstant(n.ID, 0)
        stats.ConstantsFolded++
        return
    }

    if ok0 && c0 == 0 {
        eliminate(fn, n, n.Args[1].ID(), stats)
        return
    }
    if ok1 && c1 == 0 {
        eliminate(fn, n, n.Args[0].ID(), stats)
    }
}

func (p *Pass) foldNeg(fn *ir.Function, n *ir.Node, stats *RunStats) {
    c, ok := constArg(fn, n, 0)
    if !ok {
        return
    }
    result := ((^c) + 1) & widthMask(n.Size)
    fn.ReplaceWithConstant(n.ID, result)
    stats.ConstantsFolded++
}

func (p *Pass) foldShift(fn *ir.Function, n *ir.Node, stats *RunStats) {
    if len(n.Args) < 2 {
        return
    }
    c0, ok0 := constArg(fn, n, 0)
    c1, ok1 := constArg(fn, n, 1)

    if ok0 && ok1 {
        amt := c1 & shiftMask(n.Size)
        var result uint64
        if n.Op == ir.OpLshl {
            result = c0 << amt
        } else {
            result = c0 >> amt
        }
        fn.ReplaceWithConstant(n.ID, result&widthMask(n.Size))
        stats.ConstantsFolded++
        return
    }

    if ok1 && c1 == 0 {
        eliminate(fn, n, n.Args[0].ID(), stats)
    }
}

func (p *Pass) foldBfe(fn *ir.Function, n *ir.Node, stats *RunStats) {
    if n.Size > 8 || len(n.Args) < 1 {
        return
    }
    src := fn.GetOpHeader(n.Args[0])
    if src == nil {
        return
    }

    if src.Op == ir.OpBfe && src.Width >= n.Width {
        eliminate(fn, n, src.ID, stats)
        return
    }

    if n.Lsb == 0 && int(n.Width) >= int(src.Size)*8 && isZeroExtendingLoad(src.Op) {
        eliminate(fn, n, src.ID, stats)
        return
    }

    if c, ok := constOf(fn, n.Args[0]); ok {
        sourceMask := bitMask(n.Width) << n.Lsb
        result := (c & sourceMask) >> n.Lsb
        fn.ReplaceWithConstant(n.ID, result&widthMask(n.Size))
        stats.ConstantsFolded++
        return
    }

    if n.Width == 1 && n.Lsb == 0 && src.Op == ir.OpSelect && len(src.Args) >= 4 {
        c2, ok2 := constArg(fn, src, 2)
        c3, ok3 := constArg(fn, src, 3)
        if ok2 && ok3 && c2 == 1 && c3 == 0 {
            eliminate(fn, n, src.ID, stats)
        }
    }
}

func isZeroExtendingLoad(op ir.Op) bool {
    return op == ir.OpLoadMem || op == ir.OpLoadMemTSO || op == ir.OpLoadContext
}

func (p *Pass) foldSbfe(fn *ir.Function, n *ir.Node, stats *RunStats) {
    c, ok := constArg(fn, n, 0)
    if !ok {
        return
    }
    sourceMask := bitMask(n.Width) << n.Lsb
    extracted := (c & sourceMask) >> n.Lsb
    signed := signExtend(extracted, n.Width)
    fn.ReplaceWithConstant(n.ID, signed&widthMask(n.Size))
    stats.ConstantsFolded++
}

func (p *Pass) foldBfi(fn *ir.Function, n *ir.Node, stats *RunStats) {
    if len(n.Args) < 2 {
        return
    }
    dstC, dstOK := constArg(fn, n, 0)
    srcC, srcOK := constArg(fn, n, 1)
    mask := bitMask(n.Width)

    if dstOK && srcOK {
        result := (dstC &^ (mask << n.Lsb)) | ((srcC & mask) << n.Lsb)
        fn.ReplaceWithConstant(n.ID, result&widthMask(n.Size))
        stats.ConstantsFolded++
        return
    }

    if !srcOK {
        return
    }
    run := srcC & mask
    if !hostimm.HasConsecutiveBits(run, n.Width) {
        return
    }

    dstRef := n.Args[0]
    fn.SetWriteCursorBefore(n.ID)
    shiftedMask := fn.Constant(n.Size, mask<<n.Lsb)

    var replacement ir.Ref
    if run == mask {
        replacement = fn.Or(n.Size, dstRef, shiftedMask)
    } else {
        replacement = fn.Andn(n.Size, dstRef, shiftedMask)
    }
    eliminate(fn, n, replacement.ID(), stats)
}

func (p *Pass) foldMul(fn *ir.Function, n *ir.Node, stats *RunStats) {
    if len(n.Args) < 2 {
        return
    }
    c0, ok0 := constArg(fn, n, 0)
    c1, ok1 := constArg(fn, n, 1)

    if ok0 && ok1 {
        fn.ReplaceWithConstant(n.ID, (c0*c1)&widthMask(n.Size))
        stats.ConstantsFolded++
        return
    }

    if ok1 && popcount1(c1) && (n.Size == 4 || n.Size == 8) {
        left := n.Args[0]
        fn.SetWriteCursorBefore(n.ID)
        shift := fn.Constant(n.Size, uint64(countTrailingZeros(c1)))
        replacement := fn.Lshl(n.Size, left, shift)
        eliminate(fn, n, replacement.ID(), stats)
    }
}

func (p *Pass) foldVmov(fn *ir.Function, n *ir.Node, stats *RunStats) {
    if len(n.Args) < 1 {
        return
    }
    src := fn.GetOpHeader(n.Args[0])
    if src == nil {
        return
    }
    if src.Size >= n.Size && isZeroExtendingLoad(src.Op) {
        eliminate(fn, n, src.ID, stats)
    }
}
