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

import `fmt`

// MalformedIRError marks a violation of the container's own contract (a
// dangling reference, an out-of-range argument index, a cursor pointed at
// a node that does not exist). These are programmer errors at the caller
// boundary, not part of the pass's behavioral surface, and are raised via
// panic rather than returned.
type MalformedIRError struct {
    Node   NodeID
    Reason string
}

func (e MalformedIRError) Error() string {
    return fmt.Sprintf("malformed IR at node %d: %s", e.Node, e.Reason)
}
