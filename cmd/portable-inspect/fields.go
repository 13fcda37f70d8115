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

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nimbusgrid/portable"
)

var fieldsIndex int

var fieldsCmd = &cobra.Command{
	Use:   "fields file",
	Short: "Print the fields of one root object in file as JSON",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		requireNoError(runFields(args[0]))
	},
}

func init() {
	fieldsCmd.Flags().IntVar(&fieldsIndex, "index", 0, "which root object to inspect, counting from 0")
}

func runFields(path string) error {
	src, err := portable.OpenFileSource(path)
	if err != nil {
		return err
	}
	defer src.Close()

	buf := src.Bytes()
	ctx := portable.NewContext()
	r := portable.NewReader(ctx, buf)

	offset := 0
	for i := 0; ; i++ {
		if offset >= len(buf) {
			return fmt.Errorf("file has only %d root object(s), asked for index %d", i, fieldsIndex)
		}
		v, next, err := r.ReadRootFrom(offset)
		if err != nil {
			return fmt.Errorf("object %d at offset %d: %w", i, offset, err)
		}
		if i == fieldsIndex {
			return printFields(v)
		}
		offset = next
	}
}

func printFields(v any) error {
	bo, ok := v.(*portable.BinaryObject)
	if !ok {
		enc, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(enc))
		return nil
	}

	dyn, err := bo.Inspect()
	if err != nil {
		return err
	}
	enc, err := json.MarshalIndent(dyn, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(enc))
	return nil
}
