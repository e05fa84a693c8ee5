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

package constprop

import (
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/archlift/xlate/ir"
)

func TestC3_AddSubImmInlinedWhenInlineConstantsEnabled(t *testing.T) {
    fn := ir.NewFunction(8)
    b := fn.NewBlock()
    fn.AddNode(b, &ir.Node{ID: 0, Op: ir.OpOther, Size: 4})
    fn.AddNode(b, &ir.Node{ID: 1, Op: ir.OpConstant, Size: 4, Value: 0x100})
    fn.AddNode(b, &ir.Node{ID: 2, Op: ir.OpAdd, Size: 4, Args: []ir.Ref{ir.RefTo(0), ir.RefTo(1)}})

    p := New(true, false)
    stats := p.Run(fn)

    rhs := fn.Node(fn.Node(2).Args[1].ID())
    require.Equal(t, ir.OpInlineConstant, rhs.Op)
    assert.EqualValues(t, 0x100, rhs.Value)
    assert.Equal(t, 1, stats.ImmediatesInlined)
}

func TestC3_DisabledWhenInlineConstantsOff(t *testing.T) {
    fn := ir.NewFunction(8)
    b := fn.NewBlock()
    fn.AddNode(b, &ir.Node{ID: 0, Op: ir.OpOther, Size: 4})
    fn.AddNode(b, &ir.Node{ID: 1, Op: ir.OpConstant, Size: 4, Value: 0x100})
    fn.AddNode(b, &ir.Node{ID: 2, Op: ir.OpAdd, Size: 4, Args: []ir.Ref{ir.RefTo(0), ir.RefTo(1)}})

    p := New(false, false)
    p.Run(fn)

    rhs := fn.Node(fn.Node(2).Args[1].ID())
    assert.Equal(t, ir.OpConstant, rhs.Op, "C3 must not run when the pass was constructed with inlineConstants=false")
}

func TestC3_RepeatedImmediateSharesCachedNode(t *testing.T) {
    fn := ir.NewFunction(8)
    b := fn.NewBlock()
    fn.AddNode(b, &ir.Node{ID: 0, Op: ir.OpOther, Size: 4})
    fn.AddNode(b, &ir.Node{ID: 1, Op: ir.OpOther, Size: 4})
    fn.AddNode(b, &ir.Node{ID: 2, Op: ir.OpConstant, Size: 4, Value: 5})
    fn.AddNode(b, &ir.Node{ID: 3, Op: ir.OpConstant, Size: 4, Value: 5})
    fn.AddNode(b, &ir.Node{ID: 4, Op: ir.OpLshl, Size: 4, Args: []ir.Ref{ir.RefTo(0), ir.RefTo(2)}})
    fn.AddNode(b, &ir.Node{ID: 5, Op: ir.OpLshl, Size: 4, Args: []ir.Ref{ir.RefTo(1), ir.RefTo(3)}})

    p := New(true, false)
    p.Run(fn)

    first := fn.Node(4).Args[1].ID()
    second := fn.Node(5).Args[1].ID()
    assert.Equal(t, first, second, "two InlineConstants with the same value should share one node within a Run")
}

func TestC3_TSOImmediateRequiresHostSupportFlag(t *testing.T) {
    fn := ir.NewFunction(8)
    b := fn.NewBlock()
    fn.AddNode(b, &ir.Node{ID: 0, Op: ir.OpConstant, Size: 8, Value: 0x2000})
    fn.AddNode(b, &ir.Node{ID: 1, Op: ir.OpConstant, Size: 8, Value: 100})
    fn.AddNode(b, &ir.Node{ID: 2, Op: ir.OpLoadMemTSO, Size: 8, Args: []ir.Ref{ir.RefTo(0), ir.RefTo(1)}, OffsetType: ir.OffsetSXTX})

    withoutSupport := New(true, false)
    withoutSupport.Run(fn)
    assert.Equal(t, ir.OpConstant, fn.Node(fn.Node(2).Args[1].ID()).Op, "no TSO inlining without SupportsTSOImm9")

    fn2 := ir.NewFunction(8)
    b2 := fn2.NewBlock()
    fn2.AddNode(b2, &ir.Node{ID: 0, Op: ir.OpConstant, Size: 8, Value: 0x2000})
    fn2.AddNode(b2, &ir.Node{ID: 1, Op: ir.OpConstant, Size: 8, Value: 100})
    fn2.AddNode(b2, &ir.Node{ID: 2, Op: ir.OpLoadMemTSO, Size: 8, Args: []ir.Ref{ir.RefTo(0), ir.RefTo(1)}, OffsetType: ir.OffsetSXTX})

    withSupport := New(true, true)
    withSupport.Run(fn2)
    assert.Equal(t, ir.OpInlineConstant, fn2.Node(fn2.Node(2).Args[1].ID()).Op)
}
