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
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nimbusgrid/portable"
)

var (
	dumpCompactSchemas bool
	dumpMaxObjects     int
)

var dumpCmd = &cobra.Command{
	Use:   "dump file",
	Short: "Print the header of every root object in file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		requireNoError(runDump(args[0]))
	},
}

func init() {
	dumpCmd.Flags().BoolVar(&dumpCompactSchemas, "strict-schema", false, "open the reader in strict-schema mode (dump reads object headers only and never decodes a footer)")
	dumpCmd.Flags().IntVar(&dumpMaxObjects, "max", 0, "stop after this many objects (0 means no limit)")
}

func runDump(path string) error {
	src, err := portable.OpenFileSource(path)
	if err != nil {
		return err
	}
	defer src.Close()

	buf := src.Bytes()
	ctx := portable.NewContext()
	r := newReader(ctx, buf)

	offset := 0
	count := 0
	for offset < len(buf) {
		v, next, err := r.ReadRootFrom(offset)
		if err != nil {
			return fmt.Errorf("object %d at offset %d: %w", count, offset, err)
		}

		printRoot(count, offset, v)

		if next <= offset {
			return fmt.Errorf("object %d at offset %d: decoder made no progress", count, offset)
		}
		offset = next
		count++
		if dumpMaxObjects > 0 && count >= dumpMaxObjects {
			break
		}
	}

	fmt.Fprintf(os.Stdout, "%s (%s)\n", humanize.Comma(int64(count)), pluralObjects(count))
	fmt.Fprintf(os.Stdout, "%s total\n", humanize.Bytes(uint64(len(buf))))
	return nil
}

func pluralObjects(n int) string {
	if n == 1 {
		return "1 object"
	}
	return fmt.Sprintf("%d objects", n)
}

func newReader(ctx *portable.Context, buf []byte) *portable.Reader {
	opts := []portable.ReadOption{}
	if dumpCompactSchemas {
		opts = append(opts, portable.WithStrictSchema(true))
	}
	return portable.NewReader(ctx, buf, opts...)
}

func printRoot(index, offset int, v any) {
	switch bo := v.(type) {
	case *portable.BinaryObject:
		name, hasName := bo.TypeName()
		label := fmt.Sprintf("%#x", uint32(bo.TypeID()))
		if hasName {
			label = name
		}
		fmt.Printf("[%d] offset=%d typeId=%s schemaId=%#x hashCode=%#x len=%s\n",
			index, offset, label, uint32(bo.SchemaID()), uint32(bo.HashCode()), humanize.Bytes(uint64(len(bo.Bytes()))))
	default:
		fmt.Printf("[%d] offset=%d value=%v\n", index, offset, v)
	}
}
