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
    "fmt"
    "io"
    "strings"

    "github.com/archlift/xlate/ir"
)

// Write re-emits fn in the textual format Read understands. Fields Read
// does not capture (bitfield lsb/width, shift kind, condition, offset
// kind) are not written back; round-tripping a dump through Read then
// Write preserves opcode, size, value/args but not those side fields.
func Write(w io.Writer, fn *ir.Function) error {
    for bi, b := range fn.Blocks {
        if _, err := fmt.Fprintf(w, "block %d:\n", bi); err != nil {
            return err
        }
        for _, id := range b.Nodes {
            n := fn.Node(id)
            if n == nil {
                continue
            }
            if err := writeNode(w, n); err != nil {
                return err
            }
        }
    }
    return nil
}

func writeNode(w io.Writer, n *ir.Node) error {
    switch n.Op {
    case ir.OpConstant, ir.OpInlineConstant, ir.OpInlineEntrypointOffset:
        _, err := fmt.Fprintf(w, "  %%%d = %s.%d %d\n", n.ID, n.Op, n.Size, n.Value)
        return err
    default:
        args := make([]string, len(n.Args))
        for i, a := range n.Args {
            if a.Valid() {
                args[i] = fmt.Sprintf("%%%d", a.ID())
            } else {
                args[i] = "_"
            }
        }
        _, err := fmt.Fprintf(w, "  %%%d = %s.%d %s\n", n.ID, n.Op, n.Size, strings.Join(args, " "))
        return err
    }
}
