// Copyright 2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// portable-inspect walks a file of back-to-back encoded objects and
// prints what it finds, without requiring the caller to link in any of
// the Go types the file was originally written with.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func requireNoError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err.Error())
		os.Exit(1)
	}
}

func main() {
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(fieldsCmd)
	requireNoError(rootCmd.Execute())
}

var rootCmd = &cobra.Command{
	Use:   "portable-inspect",
	Short: "Inspect streams of nimbusgrid/portable-encoded objects",
	Long:  "portable-inspect reads a file containing one or more back-to-back encoded objects and prints their headers and fields.",
}
