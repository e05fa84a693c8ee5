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

package ir

// Block is an ordered sequence of code nodes. Blocks never nest and carry
// no control-flow graph of their own beyond iteration order, since the pass
// only ever walks blocks linearly.
type Block struct {
    Index int
    Nodes []NodeID
}

type use struct {
    user NodeID
    arg  int
}

// Function owns every node and block of one translation unit. It is the
// concrete realization of the "IR view" the pass is specified against.
type Function struct {
    Blocks []*Block

    nodes  map[NodeID]*Node
    uses   map[NodeID][]use
    nextID NodeID

    curBlock int
    curAt    int // insertion index within curBlock.Nodes
}

// NewFunction allocates an empty function. hintNodes sizes the node and
// use maps up front; it is only a capacity hint, and the function grows
// past it as needed (the text reader passes a fixed hint of 64).
func NewFunction(hintNodes int) *Function {
    f := &Function{
        nodes: make(map[NodeID]*Node, hintNodes),
        uses:  make(map[NodeID][]use, hintNodes),
    }
    return f
}

// NewBlock appends a fresh, empty block and returns it.
func (f *Function) NewBlock() *Block {
    b := &Block{Index: len(f.Blocks)}
    f.Blocks = append(f.Blocks, b)
    return b
}

// AddNode appends an already-constructed node to the end of block b and
// registers its argument uses. Used by the text reader, which builds nodes
// with a caller-chosen NodeID read straight from the dump.
func (f *Function) AddNode(b *Block, n *Node) {
    f.nodes[n.ID] = n
    b.Nodes = append(b.Nodes, n.ID)
    f.registerUses(n)
    if n.ID >= f.nextID {
        f.nextID = n.ID + 1
    }
}

func (f *Function) registerUses(n *Node) {
    for i, a := range n.Args {
        if a.Valid() {
            f.uses[a.id] = append(f.uses[a.id], use{user: n.ID, arg: i})
        }
    }
}

func (f *Function) deregisterUses(n *Node) {
    for i, a := range n.Args {
        if !a.Valid() {
            continue
        }
        lst := f.uses[a.id]
        for j, u := range lst {
            if u.user == n.ID && u.arg == i {
                f.uses[a.id] = append(lst[:j], lst[j+1:]...)
                break
            }
        }
    }
}

// Node returns the node behind id, or nil if it does not exist.
func (f *Function) Node(id NodeID) *Node {
    return f.nodes[id]
}

// AllNodeIDs returns a stable, program-order snapshot of every node id in
// the function. C2/C3 iterate over a snapshot rather than live block
// slices so that ReplaceAllUsesWith-driven mutation of nodes not yet
// visited cannot perturb traversal order or cause nodes to be skipped or
// revisited.
func (f *Function) AllNodeIDs() []NodeID {
    ids := make([]NodeID, 0, len(f.nodes))
    for _, b := range f.Blocks {
        ids = append(ids, b.Nodes...)
    }
    return ids
}

// --- mutation primitives (ir.Function is the IR view the pass depends on) ---

// IsValueConstant reports whether edge refers to a Constant node, and if
// so its literal value.
func (f *Function) IsValueConstant(edge Ref) (bool, uint64) {
    if !edge.Valid() {
        return false, 0
    }
    n := f.nodes[edge.id]
    if n == nil || n.Op != OpConstant {
        return false, 0
    }
    return true, n.Value
}

// GetOpHeader reads the node behind edge, or nil if the edge is invalid or
// dangling.
func (f *Function) GetOpHeader(edge Ref) *Node {
    if !edge.Valid() {
        return nil
    }
    return f.nodes[edge.id]
}

// ReplaceWithConstant rewrites node in place into a Constant carrying
// value. The node's identity (and therefore every existing use of it) is
// preserved; its opcode, value and operand list change, and its side
// fields (bitfield lsb/width, shift, offset kind, condition) are reset.
func (f *Function) ReplaceWithConstant(id NodeID, value uint64) {
    n := f.nodes[id]
    if n == nil {
        panic(MalformedIRError{Node: id, Reason: "ReplaceWithConstant on unknown node"})
    }
    f.deregisterUses(n)
    n.Op = OpConstant
    n.Value = value
    n.Args = nil
    n.Lsb, n.Width = 0, 0
    n.Shift, n.ShiftAmount = ShiftNone, 0
    n.OffsetType, n.Cond = OffsetNone, 0
}

// ReplaceAllUsesWith redirects every use of oldID to newID.
func (f *Function) ReplaceAllUsesWith(oldID, newID NodeID) {
    lst := f.uses[oldID]
    delete(f.uses, oldID)
    for _, u := range lst {
        n := f.nodes[u.user]
        n.Args[u.arg] = RefTo(newID)
        f.uses[newID] = append(f.uses[newID], u)
    }
}

// ReplaceUsesWithAfter redirects only those uses of oldID whose user node
// was emitted at or after position (by NodeID, which is program order).
func (f *Function) ReplaceUsesWithAfter(oldID, newID NodeID, position NodeID) {
    lst := f.uses[oldID]
    kept := lst[:0]
    for _, u := range lst {
        if u.user >= position {
            n := f.nodes[u.user]
            n.Args[u.arg] = RefTo(newID)
            f.uses[newID] = append(f.uses[newID], u)
        } else {
            kept = append(kept, u)
        }
    }
    if len(kept) == 0 {
        delete(f.uses, oldID)
    } else {
        f.uses[oldID] = kept
    }
}

// ReplaceNodeArgument overwrites a single operand edge, keeping the use
// index consistent for later ReplaceAllUsesWith/ReplaceUsesWithAfter calls.
func (f *Function) ReplaceNodeArgument(id NodeID, index int, newEdge Ref) {
    n := f.nodes[id]
    if n == nil || index < 0 || index >= len(n.Args) {
        panic(MalformedIRError{Node: id, Reason: "ReplaceNodeArgument: index out of range"})
    }
    old := n.Args[index]
    if old.Valid() {
        lst := f.uses[old.id]
        for j, u := range lst {
            if u.user == id && u.arg == index {
                f.uses[old.id] = append(lst[:j], lst[j+1:]...)
                break
            }
        }
    }
    n.Args[index] = newEdge
    if newEdge.Valid() {
        f.uses[newEdge.id] = append(f.uses[newEdge.id], use{user: id, arg: index})
    }
}

// SetWriteCursor positions the emitter so newly created nodes land
// immediately after id, within id's own block.
func (f *Function) SetWriteCursor(id NodeID) {
    f.positionCursor(id, 1)
}

// SetWriteCursorBefore positions the emitter so newly created nodes land
// immediately before id, within id's own block.
func (f *Function) SetWriteCursorBefore(id NodeID) {
    f.positionCursor(id, 0)
}

func (f *Function) positionCursor(id NodeID, offset int) {
    for bi, b := range f.Blocks {
        for ni, nid := range b.Nodes {
            if nid == id {
                f.curBlock, f.curAt = bi, ni+offset
                return
            }
        }
    }
    panic(MalformedIRError{Node: id, Reason: "SetWriteCursor: node not found in any block"})
}

func (f *Function) alloc(n *Node) Ref {
    n.ID = f.nextID
    f.nextID++
    f.nodes[n.ID] = n
    b := f.Blocks[f.curBlock]
    b.Nodes = append(b.Nodes, NodeID(0))
    copy(b.Nodes[f.curAt+1:], b.Nodes[f.curAt:])
    b.Nodes[f.curAt] = n.ID
    f.curAt++
    f.registerUses(n)
    return RefTo(n.ID)
}

// --- emitter constructors ---

// Constant emits a new Constant(v) node at the write cursor.
func (f *Function) Constant(size uint8, v uint64) Ref {
    return f.alloc(&Node{Op: OpConstant, Size: size, Value: v})
}

// InlineConstant emits a new InlineConstant(v) node at the write cursor.
func (f *Function) InlineConstant(size uint8, v uint64) Ref {
    return f.alloc(&Node{Op: OpInlineConstant, Size: size, Value: v})
}

// InlineEntrypointOffset emits an InlineEntrypointOffset node carrying off.
func (f *Function) InlineEntrypointOffset(size uint8, off uint64) Ref {
    return f.alloc(&Node{Op: OpInlineEntrypointOffset, Size: size, Value: off})
}

// Or emits a new Or(a, b) node at the write cursor.
func (f *Function) Or(size uint8, a, b Ref) Ref {
    return f.alloc(&Node{Op: OpOr, Size: size, Args: []Ref{a, b}})
}

// Andn emits a new Andn(a, b) node (a &^ b) at the write cursor.
func (f *Function) Andn(size uint8, a, b Ref) Ref {
    return f.alloc(&Node{Op: OpAndn, Size: size, Args: []Ref{a, b}})
}

// Lshl emits a new Lshl(a, b) node at the write cursor.
func (f *Function) Lshl(size uint8, a, b Ref) Ref {
    return f.alloc(&Node{Op: OpLshl, Size: size, Args: []Ref{a, b}})
}
