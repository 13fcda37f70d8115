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

package portable

import (
	"os"

	mmap "github.com/edsrzf/mmap-go"
)

// FileSource memory-maps a file on disk so a Reader can random-access a
// large encoded stream (a schema dump, a snapshot of many objects back to
// back) without copying it into the Go heap first. A zero-length read
// over mapped memory is just as cheap as one into a []byte loaded with
// os.ReadFile, but avoids holding two copies of a multi-gigabyte file
// resident at once.
type FileSource struct {
	f    *os.File
	data mmap.MMap
}

// OpenFileSource maps name read-only. The returned FileSource must be
// closed to release the mapping and the underlying file descriptor.
func OpenFileSource(name string) (*FileSource, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &FileSource{f: f, data: data}, nil
}

// Bytes returns the mapped region. It is valid until Close is called;
// callers that need the data to outlive the FileSource should copy it.
func (s *FileSource) Bytes() []byte {
	return s.data
}

// NewReader builds a Reader over the mapped bytes, offset from the start
// of the mapping. This lets one FileSource back multiple Readers that
// each start at a different object's header, which is the common layout
// for a file that concatenates many top-level objects.
func (s *FileSource) NewReader(ctx *Context, offset int, opts ...ReadOption) *Reader {
	return NewReader(ctx, s.data[offset:], opts...)
}

// Close unmaps the file and closes the descriptor. Any *BinaryObject
// still referencing bytes from this source becomes invalid, including
// one Detach was called on; the copy Detach returned stays valid and can
// be wrapped in a new Reader.
func (s *FileSource) Close() error {
	if s.data != nil {
		if err := s.data.Unmap(); err != nil {
			s.f.Close()
			return err
		}
	}
	return s.f.Close()
}
