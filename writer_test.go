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
	"testing"

	"github.com/stretchr/testify/require"
)

type wPoint struct {
	X, Y int32
}

type wNode struct {
	Value int32
	Next  *wNode
}

func newTestContext(t *testing.T, goTypes ...any) *Context {
	t.Helper()
	ctx := NewContext()
	for _, v := range goTypes {
		_, err := ctx.Register(reflect.TypeOf(v))
		require.NoError(t, err)
	}
	return ctx
}

func TestWriterRepeatedPointerEmitsHandle(t *testing.T) {
	ctx := newTestContext(t, wPoint{})
	shared := &wPoint{X: 1, Y: 2}

	w := NewWriter(ctx)
	_, err := w.Write(shared)
	require.NoError(t, err)
	firstLen := w.arena.Len()

	_, err = w.Write(shared)
	require.NoError(t, err)

	// The second write of the same pointer must be a HANDLE (tag + int32),
	// far cheaper than a second full header+fields+footer encoding.
	require.Less(t, w.arena.Len()-firstLen, headerSize)
}

func TestWriterSelfReferencingStructEncodesAsHandle(t *testing.T) {
	ctx := newTestContext(t, wNode{})
	n := &wNode{Value: 7}
	n.Next = n

	w := NewWriter(ctx)
	_, err := w.Write(n)
	require.NoError(t, err)

	r := NewReader(ctx, w.Bytes())
	v, err := r.ReadRoot()
	require.NoError(t, err)

	bo := v.(*BinaryObject)
	next, ok, err := bo.Field("next")
	require.NoError(t, err)
	require.True(t, ok)

	nextBO := next.(*BinaryObject)
	require.Equal(t, bo.start, nextBO.start)
}

func TestWriterCompactFooterOmitsFieldIDs(t *testing.T) {
	ctx := newTestContext(t, wPoint{})

	full := NewWriter(ctx)
	_, err := full.Write(&wPoint{X: 10, Y: 20})
	require.NoError(t, err)

	compact := NewWriter(ctx, WithCompactFooter(true))
	_, err = compact.Write(&wPoint{X: 10, Y: 20})
	require.NoError(t, err)

	// Same two int32 fields; the compact encoding must be strictly smaller
	// since it drops the fieldId half of every footer entry.
	require.Less(t, len(compact.Bytes()), len(full.Bytes()))
}

func TestWriterHashCodeExcludesFooter(t *testing.T) {
	ctx := newTestContext(t, wPoint{})
	w := NewWriter(ctx)
	_, err := w.Write(&wPoint{X: 3, Y: 4})
	require.NoError(t, err)

	r := NewReader(ctx, w.Bytes())
	v, err := r.ReadRoot()
	require.NoError(t, err)
	bo := v.(*BinaryObject)

	// Two structurally-equal objects must hash the same regardless of
	// footer layout (full vs. compact), since the footer is never part of
	// the hashed payload.
	w2 := NewWriter(ctx, WithCompactFooter(true))
	_, err = w2.Write(&wPoint{X: 3, Y: 4})
	require.NoError(t, err)
	r2 := NewReader(ctx, w2.Bytes())
	v2, err := r2.ReadRoot()
	require.NoError(t, err)
	bo2 := v2.(*BinaryObject)

	require.Equal(t, bo.HashCode(), bo2.HashCode())
}

func TestWriterWithHashFuncOverride(t *testing.T) {
	ctx := newTestContext(t, wPoint{})
	w := NewWriter(ctx, WithHashFunc(func(v any) (int32, bool) {
		if p, ok := v.(*wPoint); ok {
			return p.X + p.Y, true
		}
		return 0, false
	}))
	_, err := w.Write(&wPoint{X: 5, Y: 9})
	require.NoError(t, err)

	r := NewReader(ctx, w.Bytes())
	v, err := r.ReadRoot()
	require.NoError(t, err)
	require.Equal(t, int32(14), v.(*BinaryObject).HashCode())
}

func TestWriterFixedWidthArrayRoundTrip(t *testing.T) {
	type arrays struct {
		Ints    []int32
		Shorts  []int16
		Doubles []float64
		Flags   []bool
	}
	ctx := newTestContext(t, arrays{})

	src := arrays{
		Ints:    []int32{1, 2, 3},
		Shorts:  []int16{4, 5},
		Doubles: []float64{1.5, 2.5},
		Flags:   []bool{true, false, true},
	}

	w := NewWriter(ctx)
	_, err := w.Write(&src)
	require.NoError(t, err)

	r := NewReader(ctx, w.Bytes())
	v, err := r.ReadRoot()
	require.NoError(t, err)

	var dst arrays
	require.NoError(t, v.(*BinaryObject).Deserialize(&dst))
	require.Equal(t, src, dst)
}

func TestWriterUnsupportedValue(t *testing.T) {
	ctx := newTestContext(t)
	w := NewWriter(ctx)
	_, err := w.Write(make(chan int))
	require.Error(t, err)
	require.ErrorIs(t, err, ErrUnsupportedValue)
}
