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

// Package constprop implements the constant-propagation and
// immediate-folding optimization pass: per-block constant pooling and
// address-gen coalescing (C1), whole-function algebraic constant folding
// and peephole rewrites (C2), and optional whole-function host-immediate
// inlining (C3).
package constprop

import (
    "github.com/rs/zerolog"

    "github.com/archlift/xlate/internal/copts"
    "github.com/archlift/xlate/ir"
)

// Option configures a Pass at construction time.
type Option func(*Pass)

// WithLogger attaches a structured logger that receives one Info-level
// summary line per Run, carrying the RunStats counters; individual rewrites
// are not logged. The pass is fully functional with no logger attached (New
// defaults to zerolog's no-op logger); attaching one never changes pass
// behavior.
func WithLogger(log zerolog.Logger) Option {
    return func(p *Pass) { p.log = log }
}

// WithLiveRangeWindow overrides C1's constant-pool eviction distance (in
// node IDs). The default matches copts.LiveRangeWindow (500).
func WithLiveRangeWindow(n int) Option {
    return func(p *Pass) { p.liveRangeWindow = n }
}

// WithAddressCoalesceWindow overrides C1's address-gen coalescing distance
// (in bytes). The default matches copts.AddressCoalesceWindow (65536).
func WithAddressCoalesceWindow(n uint64) Option {
    return func(p *Pass) { p.addressCoalesceWindow = n }
}

// Pass is one instance of the constant-propagation pass. It is
// single-threaded, non-suspending, and meant for one owner at a time
// against one ir.Function; construct a fresh Pass per concurrent user.
type Pass struct {
    inlineConstants bool
    supportsTSOImm9 bool

    liveRangeWindow       int
    addressCoalesceWindow uint64

    log zerolog.Logger
}

// New builds a Pass. inlineConstants enables C3; supportsTSOImm9 enables
// TSO-variant memory-offset inlining within C3.
func New(inlineConstants, supportsTSOImm9 bool, opts ...Option) *Pass {
    p := &Pass{
        inlineConstants:        inlineConstants,
        supportsTSOImm9:        supportsTSOImm9,
        liveRangeWindow:        copts.LiveRangeWindow,
        addressCoalesceWindow:  copts.AddressCoalesceWindow,
        log:                    zerolog.Nop(),
    }
    for _, opt := range opts {
        opt(p)
    }
    return p
}

// RunStats counts the rewrites one Run performed. It has no effect on pass
// behavior; it exists purely for observability.
type RunStats struct {
    ConstantsFolded    int
    ConstantsPooled    int
    AddressesCoalesced int
    ImmediatesInlined  int
    OpcodesFlipped     int
    NodesEliminated    int
}

func (s *RunStats) merge(o RunStats) {
    s.ConstantsFolded += o.ConstantsFolded
    s.ConstantsPooled += o.ConstantsPooled
    s.AddressesCoalesced += o.AddressesCoalesced
    s.ImmediatesInlined += o.ImmediatesInlined
    s.OpcodesFlipped += o.OpcodesFlipped
    s.NodesEliminated += o.NodesEliminated
}

// Run executes C1, then C2, then — if the pass was constructed with
// inlineConstants — C3, mutating fn in place. It never returns an error:
// the pass is infallible by design, and any pattern that does not match is
// left unchanged.
func (p *Pass) Run(fn *ir.Function) RunStats {
    var stats RunStats

    c1 := RunStats{}
    p.runC1(fn, &c1)
    stats.merge(c1)

    c2 := RunStats{}
    p.runC2(fn, &c2)
    stats.merge(c2)

    if p.inlineConstants {
        c3 := RunStats{}
        p.runC3(fn, &c3)
        stats.merge(c3)
    }

    p.log.Info().
        Int("constants_folded", stats.ConstantsFolded).
        Int("constants_pooled", stats.ConstantsPooled).
        Int("addresses_coalesced", stats.AddressesCoalesced).
        Int("immediates_inlined", stats.ImmediatesInlined).
        Int("opcodes_flipped", stats.OpcodesFlipped).
        Int("nodes_eliminated", stats.NodesEliminated).
        Msg("constprop run complete")

    return stats
}
