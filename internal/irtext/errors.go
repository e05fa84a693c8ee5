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

// Package irtext implements a minimal line-oriented textual encoding for
// ir.Function, used by the CLI harness for manual exploration and
// fuzz-corpus minimization and by the pass's idempotence test to compare
// serialized functions. It is not the pass's contract and does not
// round-trip every node field (bitfield lsb/width, shift kind, condition
// codes, offset kind are omitted); it exists to make small hand-written
// or generated test programs easy to author.
package irtext

import "fmt"

// ParseError reports a malformed line in a textual IR dump. Unlike
// ir.MalformedIRError, this is untrusted external input, so it is
// returned rather than panicked.
type ParseError struct {
    Line   int
    Reason string
}

func (e ParseError) Error() string {
    return fmt.Sprintf("irtext: parse error at line %d: %s", e.Line, e.Reason)
}
