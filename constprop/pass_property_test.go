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
    "bytes"
    "testing"

    "github.com/brianvoe/gofakeit/v6"

    "github.com/archlift/xlate/internal/irtext"
    "github.com/archlift/xlate/ir"
)

// A fully-propagated function should be a fixed point: running the pass
// again must leave its textual form unchanged. This is checked across a
// spread of randomized Add/Sub/And/Or/Xor immediate pairs rather than a
// handful of hand-picked values, since the fold tables are the part most
// likely to have a one-off gap for some particular bit pattern.
//
// Note this compares the serialized function rather than RunStats: C1's
// pooling counter increments whenever it sees a repeated constant value
// within its window, even if that particular repeat has no uses to
// redirect (e.g. a folded result that happens to equal an earlier
// operand) — which is a harmless no-op, not a second round of real work.
func TestPassIsIdempotentAcrossRandomImmediatePairs(t *testing.T) {
    gofakeit.Seed(1)
    ops := []ir.Op{ir.OpAdd, ir.OpSub, ir.OpAnd, ir.OpOr, ir.OpXor}

    for trial := 0; trial < 64; trial++ {
        op := ops[gofakeit.Number(0, len(ops)-1)]
        a := uint64(gofakeit.Uint32())
        b := uint64(gofakeit.Uint32())

        fn := ir.NewFunction(4)
        blk := fn.NewBlock()
        fn.AddNode(blk, &ir.Node{ID: 0, Op: ir.OpConstant, Size: 4, Value: a})
        fn.AddNode(blk, &ir.Node{ID: 1, Op: ir.OpConstant, Size: 4, Value: b})
        fn.AddNode(blk, &ir.Node{ID: 2, Op: op, Size: 4, Args: []ir.Ref{ir.RefTo(0), ir.RefTo(1)}})

        p := New(true, true)
        p.Run(fn)

        var before bytes.Buffer
        if err := irtext.Write(&before, fn); err != nil {
            t.Fatalf("trial %d: %v", trial, err)
        }

        p.Run(fn)

        var after bytes.Buffer
        if err := irtext.Write(&after, fn); err != nil {
            t.Fatalf("trial %d: %v", trial, err)
        }

        if before.String() != after.String() {
            t.Fatalf("trial %d (op=%s a=%#x b=%#x): second Run changed the function:\nbefore:\n%s\nafter:\n%s",
                trial, op, a, b, before.String(), after.String())
        }
    }
}
