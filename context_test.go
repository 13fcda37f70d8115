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
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type ctxWidget struct {
	Name string
}

func TestContextRegisterIsIdempotent(t *testing.T) {
	ctx := NewContext()
	d1, err := ctx.Register(reflect.TypeOf(ctxWidget{}))
	require.NoError(t, err)

	d2, err := ctx.Register(reflect.TypeOf(ctxWidget{}))
	require.NoError(t, err)

	require.Same(t, d1, d2)
}

func TestContextRegisterAcceptsPointerType(t *testing.T) {
	ctx := NewContext()
	d, err := ctx.Register(reflect.TypeOf(&ctxWidget{}))
	require.NoError(t, err)
	require.Equal(t, reflect.TypeOf(ctxWidget{}), d.goType)
}

func TestContextDescriptorForAndByID(t *testing.T) {
	ctx := NewContext()
	d, err := ctx.Register(reflect.TypeOf(ctxWidget{}))
	require.NoError(t, err)

	byType, ok := ctx.DescriptorFor(reflect.TypeOf(ctxWidget{}))
	require.True(t, ok)
	require.Same(t, d, byType)

	byID, ok := ctx.DescriptorByID(d.TypeID())
	require.True(t, ok)
	require.Same(t, d, byID)
}

func TestContextDescriptorForUnregisteredType(t *testing.T) {
	ctx := NewContext()
	_, ok := ctx.DescriptorFor(reflect.TypeOf(ctxWidget{}))
	require.False(t, ok)
}

func TestContextRegisterConcurrentCallersConverge(t *testing.T) {
	ctx := NewContext()
	const n = 32

	var wg sync.WaitGroup
	descriptors := make([]*TypeDescriptor, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d, err := ctx.Register(reflect.TypeOf(ctxWidget{}))
			require.NoError(t, err)
			descriptors[i] = d
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		require.Same(t, descriptors[0], descriptors[i])
	}
}

func TestContextTypeNameCollisionAcrossDistinctGoTypes(t *testing.T) {
	type other struct{ X int32 }
	ctx := NewContext()

	_, err := ctx.Register(reflect.TypeOf(ctxWidget{}), WithTypeName("shared"))
	require.NoError(t, err)

	_, err = ctx.Register(reflect.TypeOf(other{}), WithTypeName("shared"))
	require.Error(t, err)
	require.ErrorIs(t, err, ErrTypeConfig)
}

func TestWithMetadataUpdatePublishesOnNewSchema(t *testing.T) {
	var published []PublishedMetadata
	var mu sync.Mutex

	ctx := NewContext(WithMetadataUpdate(func(pm PublishedMetadata) {
		mu.Lock()
		defer mu.Unlock()
		published = append(published, pm)
	}))

	_, err := ctx.Register(reflect.TypeOf(ctxWidget{}), WithMetadataEnabled(true))
	require.NoError(t, err)

	w := NewWriter(ctx)
	_, err = w.Write(&ctxWidget{Name: "gizmo"})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, published, 1)
	require.Contains(t, published[0].Fields, "name")
}
