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

package ir

import "testing"

func TestReplaceAllUsesWith(t *testing.T) {
    fn := NewFunction(8)
    b := fn.NewBlock()

    c1 := &Node{ID: 0, Op: OpConstant, Size: 8, Value: 7}
    c2 := &Node{ID: 1, Op: OpConstant, Size: 8, Value: 5}
    add := &Node{ID: 2, Op: OpAdd, Size: 4, Args: []Ref{RefTo(0), RefTo(1)}}
    user := &Node{ID: 3, Op: OpNeg, Size: 4, Args: []Ref{RefTo(2)}}

    fn.AddNode(b, c1)
    fn.AddNode(b, c2)
    fn.AddNode(b, add)
    fn.AddNode(b, user)

    fn.ReplaceAllUsesWith(2, 0)

    if fn.Node(3).Args[0].ID() != 0 {
        t.Fatalf("expected user's argument redirected to node 0, got %d", fn.Node(3).Args[0].ID())
    }
}

func TestReplaceWithConstantPreservesUses(t *testing.T) {
    fn := NewFunction(8)
    b := fn.NewBlock()

    x := &Node{ID: 0, Op: OpOther, Size: 4}
    c := &Node{ID: 1, Op: OpConstant, Size: 4, Value: 5}
    add := &Node{ID: 2, Op: OpAdd, Size: 4, Args: []Ref{RefTo(0), RefTo(1)}}
    user := &Node{ID: 3, Op: OpNeg, Size: 4, Args: []Ref{RefTo(2)}}

    fn.AddNode(b, x)
    fn.AddNode(b, c)
    fn.AddNode(b, add)
    fn.AddNode(b, user)

    fn.ReplaceWithConstant(2, 12)

    if fn.Node(2).Op != OpConstant || fn.Node(2).Value != 12 {
        t.Fatalf("node 2 was not rewritten into Constant(12)")
    }
    if fn.Node(3).Args[0].ID() != 2 {
        t.Fatalf("user's edge to node 2 should survive the in-place rewrite")
    }
}

func TestWriteCursorEmitsBeforeTargetInBlock(t *testing.T) {
    fn := NewFunction(8)
    b := fn.NewBlock()

    n0 := &Node{ID: 0, Op: OpOther, Size: 4}
    n1 := &Node{ID: 1, Op: OpOther, Size: 4}
    fn.AddNode(b, n0)
    fn.AddNode(b, n1)

    fn.SetWriteCursorBefore(1)
    ref := fn.Constant(8, 42)

    idx := -1
    for i, id := range b.Nodes {
        if id == ref.ID() {
            idx = i
        }
    }
    if idx != 1 {
        t.Fatalf("expected new constant inserted at index 1 (before node 1), got index %d", idx)
    }
}

func TestReplaceUsesWithAfterOnlyAffectsLaterUsers(t *testing.T) {
    fn := NewFunction(8)
    b := fn.NewBlock()

    target := &Node{ID: 0, Op: OpConstant, Size: 8, Value: 1}
    earlyUser := &Node{ID: 1, Op: OpNeg, Size: 4, Args: []Ref{RefTo(0)}}
    lateUser := &Node{ID: 2, Op: OpNeg, Size: 4, Args: []Ref{RefTo(0)}}
    replacement := &Node{ID: 3, Op: OpConstant, Size: 8, Value: 1}

    fn.AddNode(b, target)
    fn.AddNode(b, earlyUser)
    fn.AddNode(b, lateUser)
    fn.AddNode(b, replacement)

    fn.ReplaceUsesWithAfter(0, 3, 2)

    if fn.Node(1).Args[0].ID() != 0 {
        t.Fatalf("earlyUser (id 1) should keep its original edge")
    }
    if fn.Node(2).Args[0].ID() != 3 {
        t.Fatalf("lateUser (id 2) should be redirected to the replacement")
    }
}
