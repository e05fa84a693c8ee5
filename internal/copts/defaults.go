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

package copts

import (
    "os"
    "strconv"
)

const (
    _DefaultLiveRangeWindow       = 500   // C1: constant pool eviction distance, in node IDs
    _DefaultAddressCoalesceWindow = 65536 // C1: address-gen coalescing distance, in bytes
)

var (
    LiveRangeWindow       = int(parseOrDefault("CONSTPROP_LIVE_RANGE_WINDOW", _DefaultLiveRangeWindow, 0))
    AddressCoalesceWindow = parseOrDefault("CONSTPROP_ADDRESS_COALESCE_WINDOW", _DefaultAddressCoalesceWindow, 0)
)

func parseOrDefault(key string, def uint64, min uint64) uint64 {
    env := os.Getenv(key)
    if env == "" {
        return def
    }
    val, err := strconv.ParseUint(env, 0, 64)
    if err != nil {
        panic("constprop: invalid value for " + key)
    }
    if val <= min {
        panic("constprop: value too small for " + key)
    }
    return val
}
