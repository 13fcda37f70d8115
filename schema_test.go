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
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSchemaEqualSequencesProduceEqualID(t *testing.T) {
	a := NewSchema([]int32{1, 2, 3})
	b := NewSchema([]int32{1, 2, 3})
	require.Equal(t, a.ID(), b.ID())
	require.True(t, a.Equal(b))
}

func TestSchemaOrderMatters(t *testing.T) {
	a := NewSchema([]int32{1, 2, 3})
	b := NewSchema([]int32{3, 2, 1})
	require.NotEqual(t, a.ID(), b.ID())
	require.False(t, a.Equal(b))
}

func TestSchemaFieldIDsIsCopiedNotAliased(t *testing.T) {
	src := []int32{1, 2, 3}
	s := NewSchema(src)
	src[0] = 99
	require.Equal(t, int32(1), s.FieldIDs()[0])
}

func TestSchemaIndexOf(t *testing.T) {
	s := NewSchema([]int32{10, 20, 30})
	require.Equal(t, 1, s.IndexOf(20))
	require.Equal(t, -1, s.IndexOf(99))
}

func TestSchemaLen(t *testing.T) {
	s := NewSchema([]int32{1, 2, 3, 4})
	require.Equal(t, 4, s.Len())
}

func TestSchemaStringIncludesID(t *testing.T) {
	s := NewSchema([]int32{1, 2})
	require.Contains(t, s.String(), "schema{")
	require.Contains(t, s.String(), fmt.Sprintf("id: %#x", uint32(s.ID())))
}
