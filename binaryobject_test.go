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

type boAddress struct {
	City string
	Zip  string
}

type boPerson struct {
	Name    string
	Age     int32
	Address boAddress
}

func TestBinaryObjectDeserializeRoundTrip(t *testing.T) {
	ctx := newTestContext(t, boPerson{}, boAddress{})
	src := boPerson{Name: "Ada", Age: 30, Address: boAddress{City: "London", Zip: "E1"}}

	w := NewWriter(ctx)
	_, err := w.Write(&src)
	require.NoError(t, err)

	r := NewReader(ctx, w.Bytes())
	v, err := r.ReadRoot()
	require.NoError(t, err)
	bo := v.(*BinaryObject)

	var dst boPerson
	require.NoError(t, bo.Deserialize(&dst))
	require.Equal(t, src, dst)
}

func TestBinaryObjectDeserializeWrongTypeFails(t *testing.T) {
	ctx := newTestContext(t, boPerson{}, boAddress{})
	w := NewWriter(ctx)
	_, err := w.Write(&boPerson{Name: "Ada"})
	require.NoError(t, err)

	r := NewReader(ctx, w.Bytes())
	v, err := r.ReadRoot()
	require.NoError(t, err)
	bo := v.(*BinaryObject)

	var wrong boAddress
	err = bo.Deserialize(&wrong)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrUnknownType)
}

func TestBinaryObjectDeserializeAnyUnregisteredFallsBackToDynamicObject(t *testing.T) {
	writeCtx := newTestContext(t, boPerson{})
	w := NewWriter(writeCtx)
	_, err := w.Write(&boPerson{Name: "Grace", Age: 40})
	require.NoError(t, err)

	// A reader whose Context never registered boPerson must still be able
	// to decode every field, just without Go struct names to hang them on.
	readCtx := newTestContext(t)
	r := NewReader(readCtx, w.Bytes())
	v, err := r.ReadRoot()
	require.NoError(t, err)
	bo := v.(*BinaryObject)

	any1, err := bo.DeserializeAny()
	require.NoError(t, err)
	dyn, ok := any1.(*DynamicObject)
	require.True(t, ok)
	require.Equal(t, bo.TypeID(), dyn.TypeID)
	require.Len(t, dyn.Fields, 3)
}

func TestBinaryObjectInspectReturnsAllFields(t *testing.T) {
	ctx := newTestContext(t, boPerson{}, boAddress{})
	w := NewWriter(ctx)
	_, err := w.Write(&boPerson{Name: "Turing", Age: 41, Address: boAddress{City: "Manchester"}})
	require.NoError(t, err)

	r := NewReader(ctx, w.Bytes())
	v, err := r.ReadRoot()
	require.NoError(t, err)
	bo := v.(*BinaryObject)

	dyn, err := bo.Inspect()
	require.NoError(t, err)
	require.Equal(t, "boPerson", dyn.TypeName)
	require.Len(t, dyn.Fields, 3)
}

func TestBinaryObjectTypeNameForUnregisteredType(t *testing.T) {
	// Never registered with ctx, so the writer falls back to the
	// sentinel unregistered-type encoding (typeId 0 + wire type name).
	ctx := newTestContext(t)
	w := NewWriter(ctx)
	_, err := w.Write(&boAddress{City: "Paris"})
	require.NoError(t, err)

	r := NewReader(ctx, w.Bytes())
	v, err := r.ReadRoot()
	require.NoError(t, err)

	bo, ok := v.(*BinaryObject)
	require.True(t, ok)
	name, ok := bo.TypeName()
	require.True(t, ok)
	require.Contains(t, name, "boAddress")
}

func TestBinaryObjectDeserializeAnySelfReferenceSharesPointerIdentity(t *testing.T) {
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

	// Materializing must terminate (not recurse forever on the HANDLE back
	// to bo's own offset) and decoded.Next must be decoded itself, not a
	// second, separately-allocated copy.
	decoded, err := bo.DeserializeAny()
	require.NoError(t, err)
	node, ok := decoded.(*wNode)
	require.True(t, ok)
	require.Equal(t, int32(7), node.Value)
	require.Same(t, node, node.Next)
}

func TestBinaryObjectDeserializeSelfReferenceSharesPointerIdentity(t *testing.T) {
	ctx := newTestContext(t, wNode{})
	n := &wNode{Value: 9}
	n.Next = n

	w := NewWriter(ctx)
	_, err := w.Write(n)
	require.NoError(t, err)

	r := NewReader(ctx, w.Bytes())
	v, err := r.ReadRoot()
	require.NoError(t, err)
	bo := v.(*BinaryObject)

	var dst wNode
	require.NoError(t, bo.Deserialize(&dst))
	require.Same(t, &dst, dst.Next)
}

func TestBinaryObjectDeserializeAnySharedReferenceResolvesToSameValue(t *testing.T) {
	ctx := newTestContext(t, wNode{})
	shared := &wNode{Value: 1}
	root := &wNode{Value: 2, Next: shared}

	w := NewWriter(ctx)
	_, err := w.Write(root)
	require.NoError(t, err)
	// Write the shared node again so a second reference to the same
	// offset exists elsewhere in the stream, then read both roots back.
	_, err = w.Write(shared)
	require.NoError(t, err)

	r := NewReader(ctx, w.Bytes())
	first, next, err := r.ReadRootFrom(0)
	require.NoError(t, err)
	second, _, err := r.ReadRootFrom(next)
	require.NoError(t, err)

	decodedRoot, err := first.(*BinaryObject).DeserializeAny()
	require.NoError(t, err)
	decodedShared, err := second.(*BinaryObject).DeserializeAny()
	require.NoError(t, err)

	require.Same(t, decodedRoot.(*wNode).Next, decodedShared.(*wNode))
}

func TestBinaryObjectRawBytesOnlyForExternalMode(t *testing.T) {
	ctx := newTestContext(t, boPerson{})
	w := NewWriter(ctx)
	_, err := w.Write(&boPerson{Name: "Lovelace"})
	require.NoError(t, err)

	r := NewReader(ctx, w.Bytes())
	v, err := r.ReadRoot()
	require.NoError(t, err)
	bo := v.(*BinaryObject)

	_, ok := bo.RawBytes()
	require.False(t, ok)
}
