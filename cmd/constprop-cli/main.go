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

// Command constprop-cli reads a textual IR dump, runs the
// constant-propagation pass over it, and prints the rewritten IR plus a
// summary of what the pass did. It exists for manual exploration and
// fuzz-corpus minimization; it carries no correctness obligations of its
// own beyond round-tripping the text format it reads.
package main

import (
    "fmt"
    "os"

    "github.com/rs/zerolog"
    "github.com/spf13/cobra"

    "github.com/archlift/xlate/constprop"
    "github.com/archlift/xlate/internal/irtext"
)

func main() {
    var inlineConstants bool
    var supportsTSOImm9 bool
    var logLevel string

    root := &cobra.Command{
        Use:   "constprop-cli [file]",
        Short: "Run the constant-propagation pass over a textual IR dump",
        Args:  cobra.MaximumNArgs(1),
        RunE: func(cmd *cobra.Command, args []string) error {
            in := os.Stdin
            if len(args) == 1 {
                f, err := os.Open(args[0])
                if err != nil {
                    return err
                }
                defer f.Close()
                in = f
            }

            fn, err := irtext.Read(in)
            if err != nil {
                return err
            }

            level, err := zerolog.ParseLevel(logLevel)
            if err != nil {
                return err
            }
            log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

            pass := constprop.New(inlineConstants, supportsTSOImm9, constprop.WithLogger(log))
            stats := pass.Run(fn)

            if err := irtext.Write(os.Stdout, fn); err != nil {
                return err
            }
            fmt.Fprintf(os.Stderr, "%+v\n", stats)
            return nil
        },
    }

    root.Flags().BoolVar(&inlineConstants, "inline-constants", false, "enable C3 host-immediate inlining")
    root.Flags().BoolVar(&supportsTSOImm9, "tso-imm9", false, "host supports signed 9-bit unscaled TSO memory immediates")
    root.Flags().StringVar(&logLevel, "log-level", "info", "zerolog level (debug, info, warn, error, disabled)")

    if err := root.Execute(); err != nil {
        fmt.Fprintln(os.Stderr, err)
        os.Exit(1)
    }
}
