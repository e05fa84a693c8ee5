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

package irtext

import (
    "bufio"
    "io"
    "strconv"
    "strings"

    "github.com/archlift/xlate/ir"
)

var opByName = buildOpByName()

func buildOpByName() map[string]ir.Op {
    m := make(map[string]ir.Op, 64)
    for op := ir.OpInvalid; op <= ir.OpOther; op++ {
        m[op.String()] = op
    }
    return m
}

// Read parses a textual IR dump:
//
//	block 0:
//	  %2 = Constant.8 7
//	  %3 = Add.4 %1 %2
//
// Lines consisting only of whitespace are skipped. "block N:" starts a new
// block; N is informational only (blocks are appended in encounter order).
// A node line is "%id = Op.size args...", where each arg is either "%id"
// or "_" for ir.Invalid. Constant/InlineConstant/InlineEntrypointOffset
// nodes take a single decimal or 0x-hex literal in place of the arg list.
func Read(r io.Reader) (*ir.Function, error) {
    fn := ir.NewFunction(64)
    var block *ir.Block

    scanner := bufio.NewScanner(r)
    lineNo := 0

    for scanner.Scan() {
        lineNo++
        line := strings.TrimSpace(scanner.Text())
        if line == "" || strings.HasPrefix(line, "#") {
            continue
        }
        if strings.HasPrefix(line, "block") {
            block = fn.NewBlock()
            continue
        }
        if block == nil {
            return nil, ParseError{Line: lineNo, Reason: "node line before any block header"}
        }
        n, err := parseNode(line, lineNo)
        if err != nil {
            return nil, err
        }
        fn.AddNode(block, n)
    }
    if err := scanner.Err(); err != nil {
        return nil, err
    }
    return fn, nil
}

func parseNode(line string, lineNo int) (*ir.Node, error) {
    eq := strings.Index(line, "=")
    if eq < 0 {
        return nil, ParseError{Line: lineNo, Reason: "missing '='"}
    }
    lhs := strings.TrimSpace(line[:eq])
    rhs := strings.Fields(line[eq+1:])
    if len(rhs) == 0 {
        return nil, ParseError{Line: lineNo, Reason: "missing opcode"}
    }

    id, err := parseNodeID(lhs)
    if err != nil {
        return nil, ParseError{Line: lineNo, Reason: "bad node id: " + err.Error()}
    }

    opSize := strings.SplitN(rhs[0], ".", 2)
    op, ok := opByName[opSize[0]]
    if !ok {
        return nil, ParseError{Line: lineNo, Reason: "unknown opcode " + opSize[0]}
    }
    size := uint8(8)
    if len(opSize) == 2 {
        s, err := strconv.ParseUint(opSize[1], 10, 8)
        if err != nil {
            return nil, ParseError{Line: lineNo, Reason: "bad size: " + err.Error()}
        }
        size = uint8(s)
    }

    n := &ir.Node{ID: id, Op: op, Size: size}

    switch op {
    case ir.OpConstant, ir.OpInlineConstant, ir.OpInlineEntrypointOffset:
        if len(rhs) < 2 {
            return nil, ParseError{Line: lineNo, Reason: "missing literal value"}
        }
        v, err := strconv.ParseUint(rhs[1], 0, 64)
        if err != nil {
            return nil, ParseError{Line: lineNo, Reason: "bad literal: " + err.Error()}
        }
        n.Value = v
    default:
        for _, tok := range rhs[1:] {
            if tok == "_" {
                n.Args = append(n.Args, ir.Invalid)
                continue
            }
            argID, err := parseNodeID(tok)
            if err != nil {
                return nil, ParseError{Line: lineNo, Reason: "bad argument: " + err.Error()}
            }
            n.Args = append(n.Args, ir.RefTo(argID))
        }
    }

    return n, nil
}

func parseNodeID(tok string) (ir.NodeID, error) {
    tok = strings.TrimPrefix(tok, "%")
    v, err := strconv.ParseUint(tok, 10, 32)
    if err != nil {
        return 0, err
    }
    return ir.NodeID(v), nil
}
