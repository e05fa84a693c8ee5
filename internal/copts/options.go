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

// Package copts holds the constant-propagation pass's tunable policy
// constants and their environment-variable overrides, separate from the
// pass package itself so that CLI and library callers share one source of
// defaults.
package copts

type Options struct {
    LiveRangeWindow       int
    AddressCoalesceWindow uint64
}

func GetDefaultOptions() Options {
    return Options{
        LiveRangeWindow:       LiveRangeWindow,
        AddressCoalesceWindow: AddressCoalesceWindow,
    }
}
