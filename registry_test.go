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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSchemaRegistryLookupMissing(t *testing.T) {
	reg := NewSchemaRegistry()
	_, ok := reg.Lookup(1, 2)
	require.False(t, ok)
}

func TestSchemaRegistryInsertThenLookup(t *testing.T) {
	reg := NewSchemaRegistry()
	s := NewSchema([]int32{10, 20, 30})
	require.NoError(t, reg.Insert(1, s))

	found, ok := reg.Lookup(1, s.ID())
	require.True(t, ok)
	require.True(t, found.Equal(s))
}

func TestSchemaRegistryInsertSameSchemaTwiceIsNoop(t *testing.T) {
	reg := NewSchemaRegistry()
	s := NewSchema([]int32{1, 2})
	require.NoError(t, reg.Insert(5, s))
	require.NoError(t, reg.Insert(5, s))
}

func TestSchemaRegistryDistinctTypesDoNotCollide(t *testing.T) {
	reg := NewSchemaRegistry()
	s := NewSchema([]int32{1, 2})
	require.NoError(t, reg.Insert(1, s))
	require.NoError(t, reg.Insert(2, s))

	_, ok := reg.Lookup(1, s.ID())
	require.True(t, ok)
	_, ok = reg.Lookup(2, s.ID())
	require.True(t, ok)
}

func TestSchemaRegistrySchemasReturnsAllForType(t *testing.T) {
	reg := NewSchemaRegistry()
	a := NewSchema([]int32{1})
	b := NewSchema([]int32{1, 2})
	require.NoError(t, reg.Insert(7, a))
	require.NoError(t, reg.Insert(7, b))

	schemas := reg.Schemas(7)
	require.Len(t, schemas, 2)
}

func TestSchemaRegistryClearRemovesEverything(t *testing.T) {
	reg := NewSchemaRegistry()
	s := NewSchema([]int32{1})
	require.NoError(t, reg.Insert(1, s))
	reg.Clear()

	_, ok := reg.Lookup(1, s.ID())
	require.False(t, ok)
}
