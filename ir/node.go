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

// Package ir implements the minimal node/edge intermediate representation
// container the constprop pass mutates: ordered blocks of code nodes, each
// carrying an opcode tag, a result width and a vector of operand edges.
package ir

import `fmt`

// Op is the opcode tag carried by every code node.
type Op byte

const (
    OpInvalid Op = iota

    OpConstant
    OpInlineConstant
    OpInlineEntrypointOffset
    OpEntrypointOffset

    OpAdd
    OpSub
    OpAddNZCV
    OpSubNZCV
    OpAddWithFlags
    OpSubWithFlags
    OpSubShift

    OpAnd
    OpAndWithFlags
    OpOr
    OpOrLshl
    OpOrLshr
    OpXor
    OpAndn

    OpNeg

    OpLshl
    OpLshr
    OpAshr
    OpRor

    OpBfe
    OpSbfe
    OpBfi

    OpMul
    OpVmov

    OpSelect
    OpNZCVSelect

    OpAdc
    OpAdcWithFlags
    OpRmifNZCV
    OpCondAddNZCV
    OpCondSubNZCV
    OpTestNZ
    OpCondJump

    OpExitFunction

    OpLoadMem
    OpStoreMem
    OpLoadMemTSO
    OpStoreMemTSO
    OpPrefetch
    OpMemCpy
    OpMemSet
    OpLoadContext
    OpLoadMemTSOOffset // placeholder reserved tag, unused by the pass

    // OpOther stands in for every opcode the pass never inspects; the
    // container keeps them opaque rather than enumerating the guest's
    // full instruction catalogue.
    OpOther
)

var opNames = map[Op]string{
    OpInvalid:                "invalid",
    OpConstant:                "Constant",
    OpInlineConstant:          "InlineConstant",
    OpInlineEntrypointOffset:  "InlineEntrypointOffset",
    OpEntrypointOffset:        "EntrypointOffset",
    OpAdd:                     "Add",
    OpSub:                     "Sub",
    OpAddNZCV:                 "AddNZCV",
    OpSubNZCV:                 "SubNZCV",
    OpAddWithFlags:            "AddWithFlags",
    OpSubWithFlags:            "SubWithFlags",
    OpSubShift:                "SubShift",
    OpAnd:                     "And",
    OpAndWithFlags:            "AndWithFlags",
    OpOr:                      "Or",
    OpOrLshl:                  "OrLshl",
    OpOrLshr:                  "OrLshr",
    OpXor:                     "Xor",
    OpAndn:                    "Andn",
    OpNeg:                     "Neg",
    OpLshl:                    "Lshl",
    OpLshr:                    "Lshr",
    OpAshr:                    "Ashr",
    OpRor:                     "Ror",
    OpBfe:                     "Bfe",
    OpSbfe:                    "Sbfe",
    OpBfi:                     "Bfi",
    OpMul:                     "Mul",
    OpVmov:                    "Vmov",
    OpSelect:                  "Select",
    OpNZCVSelect:              "NZCVSelect",
    OpAdc:                     "Adc",
    OpAdcWithFlags:            "AdcWithFlags",
    OpRmifNZCV:                "RmifNZCV",
    OpCondAddNZCV:             "CondAddNZCV",
    OpCondSubNZCV:             "CondSubNZCV",
    OpTestNZ:                  "TestNZ",
    OpCondJump:                "CondJump",
    OpExitFunction:            "ExitFunction",
    OpLoadMem:                 "LoadMem",
    OpStoreMem:                "StoreMem",
    OpLoadMemTSO:              "LoadMemTSO",
    OpStoreMemTSO:             "StoreMemTSO",
    OpPrefetch:                "Prefetch",
    OpMemCpy:                  "MemCpy",
    OpMemSet:                  "MemSet",
    OpLoadContext:             "LoadContext",
    OpOther:                   "Other",
}

func (op Op) String() string {
    if s, ok := opNames[op]; ok {
        return s
    }
    return fmt.Sprintf("Op(%d)", byte(op))
}

// BitShift is the shift kind encoded on OrLshl/OrLshr/SubShift nodes.
type BitShift byte

const (
    ShiftNone BitShift = iota
    ShiftLSL
    ShiftLSR
    ShiftASR
    ShiftROR
)

// OffsetType distinguishes how a memory op's offset operand is extended
// before being added to its base. C1 coalescing skips only OffsetOther
// (None and SXTX both coalesce); C3 memory-immediate inlining requires SXTX.
// OffsetOther means the offset slot already carries addressing modes the
// pass does not reason about.
type OffsetType byte

const (
    OffsetNone OffsetType = iota
    OffsetSXTX
    OffsetOther
)

// Cond is the condition code carried by Select/NZCVSelect/CondJump and the
// CondAddNZCV/CondSubNZCV family. The pass treats it as opaque payload; it
// never inspects or folds on the condition itself.
type Cond byte

// NodeID is the monotonically increasing, program-order identifier assigned
// to every code node. Live-range heuristics compare NodeIDs directly.
type NodeID uint32

// Ref is an operand edge: either a reference to another code node, or the
// invalid sentinel standing in for an absent operand.
type Ref struct {
    id    NodeID
    valid bool
}

// Invalid is the absent-operand sentinel.
var Invalid = Ref{}

// RefTo builds a valid operand edge pointing at id.
func RefTo(id NodeID) Ref {
    return Ref{id: id, valid: true}
}

// Valid reports whether the edge refers to a real node.
func (r Ref) Valid() bool {
    return r.valid
}

// ID returns the referenced node's identifier. Only meaningful if Valid().
func (r Ref) ID() NodeID {
    return r.id
}

// Node is one operation in the linear IR: an opcode header plus operand
// edges and the handful of side fields individual opcodes need (immediate
// literals, bitfield lsb/width, shift kind, condition code, offset kind).
type Node struct {
    ID   NodeID
    Op   Op
    Size uint8 // result width in bytes
    Args []Ref

    Value uint64 // Constant / InlineConstant / InlineEntrypointOffset literal

    Lsb   uint8 // Bfe / Sbfe / Bfi
    Width uint8 // Bfe / Sbfe / Bfi, bits

    Shift       BitShift
    ShiftAmount uint8

    OffsetType OffsetType
    Cond       Cond
}

// WidthBits returns the node's declared result width in bits.
func (n *Node) WidthBits() uint8 {
    return n.Size * 8
}

func (n *Node) String() string {
    return fmt.Sprintf("%%%d = %s.%d %v", n.ID, n.Op, n.Size, n.Args)
}
