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

import "github.com/archlift/xlate/ir"

type poolEntry struct {
    node ir.NodeID
    id   ir.NodeID
}

type addrConst struct {
    node  ir.NodeID
    value uint64
}

// runC1 performs per-block constant pooling and address-gen coalescing.
// Both maps are local to the block loop iteration and therefore empty at
// every block boundary, per the per-block state invariant.
func (p *Pass) runC1(fn *ir.Function, stats *RunStats) {
    for _, b := range fn.Blocks {
        pool := make(map[uint64]poolEntry)
        var addrConsts []addrConst

        // Snapshot: coalescing inserts new Constant nodes into this same
        // block via SetWriteCursorBefore, so the live node slice grows
        // while we walk it. Iterate a copy to keep visiting each
        // originally-present node exactly once.
        ids := make([]ir.NodeID, len(b.Nodes))
        copy(ids, b.Nodes)

        for _, id := range ids {
            n := fn.Node(id)
            if n == nil {
                continue
            }
            switch n.Op {
            case ir.OpLoadMem, ir.OpStoreMem:
                addrConsts = p.tryCoalesceAddress(fn, n, addrConsts, stats)
            case ir.OpConstant:
                p.poolConstant(fn, pool, n, stats)
            }
        }
    }
}

func (p *Pass) tryCoalesceAddress(fn *ir.Function, n *ir.Node, addrConsts []addrConst, stats *RunStats) []addrConst {
    if len(n.Args) < 2 {
        return addrConsts
    }
    addrRef, offsetRef := n.Args[0], n.Args[1]
    if offsetRef.Valid() {
        return addrConsts
    }
    if n.OffsetType == ir.OffsetOther {
        // the offset slot already carries an addressing mode the pass
        // does not reason about; leave the op alone.
        return addrConsts
    }
    isConst, a := fn.IsValueConstant(addrRef)
    if !isConst {
        return addrConsts
    }

    for _, c := range addrConsts {
        if a < c.value {
            continue
        }
        if diff := a - c.value; diff < p.addressCoalesceWindow {
            fn.SetWriteCursorBefore(n.ID)
            off := fn.Constant(8, diff)
            fn.ReplaceNodeArgument(n.ID, 0, ir.RefTo(c.node))
            fn.ReplaceNodeArgument(n.ID, 1, off)
            stats.AddressesCoalesced++
            return addrConsts
        }
    }

    return append(addrConsts, addrConst{node: addrRef.ID(), value: a})
}

func (p *Pass) poolConstant(fn *ir.Function, pool map[uint64]poolEntry, n *ir.Node, stats *RunStats) {
    v := n.Value
    e, ok := pool[v]
    if !ok {
        pool[v] = poolEntry{node: n.ID, id: n.ID}
        return
    }

    window := p.liveRangeWindow
    if window <= 0 {
        window = 1
    }
    if int(n.ID)-int(e.id) > window {
        pool[v] = poolEntry{node: n.ID, id: n.ID}
        return
    }

    fn.ReplaceUsesWithAfter(n.ID, e.node, n.ID)
    stats.ConstantsPooled++
}
