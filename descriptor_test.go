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

type dBase struct {
	ID int32
}

type dDerived struct {
	dBase
	Name string
}

type dCustom struct {
	Payload string
}

func (d *dCustom) WriteBinary(w *Writer) error {
	return w.WriteStringField("payload", d.Payload)
}

func (d *dCustom) ReadBinary(r *Reader) error {
	v, err := r.ReadStringField("payload")
	if err != nil {
		return err
	}
	d.Payload = v
	return nil
}

type dExternal struct {
	Blob []byte
}

func (d *dExternal) WriteExternal() ([]byte, error) { return d.Blob, nil }
func (d *dExternal) ReadExternal(b []byte) error     { d.Blob = append([]byte{}, b...); return nil }

func TestBuildDescriptorEmbeddedFieldsComeFirst(t *testing.T) {
	d, err := BuildDescriptor(reflect.TypeOf(dDerived{}), DefaultIDMapper)
	require.NoError(t, err)
	require.Len(t, d.fields, 2)
	require.Equal(t, "id", d.fields[0].name)
	require.Equal(t, "name", d.fields[1].name)
}

func TestBuildDescriptorDetectsCustomMode(t *testing.T) {
	d, err := BuildDescriptor(reflect.TypeOf(dCustom{}), DefaultIDMapper)
	require.NoError(t, err)
	require.Equal(t, ModeCustom, d.mode)
}

func TestBuildDescriptorDetectsExternalMode(t *testing.T) {
	d, err := BuildDescriptor(reflect.TypeOf(dExternal{}), DefaultIDMapper)
	require.NoError(t, err)
	require.Equal(t, ModeExternal, d.mode)
	require.Nil(t, d.fields)
}

func TestBuildDescriptorExcludedModeHasNoFields(t *testing.T) {
	d, err := BuildDescriptor(reflect.TypeOf(dBase{}), DefaultIDMapper, WithExcluded())
	require.NoError(t, err)
	require.Equal(t, ModeExcluded, d.mode)
	require.Nil(t, d.fields)
}

func TestBuildDescriptorDuplicateFieldNameTagFails(t *testing.T) {
	type dup struct {
		A int32 `portable:"x"`
		B int32 `portable:"x"`
	}
	_, err := BuildDescriptor(reflect.TypeOf(dup{}), DefaultIDMapper)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrTypeConfig)
}

func TestBuildDescriptorTransientFieldExcluded(t *testing.T) {
	type withTransient struct {
		Kept     int32
		Excluded int32 `portable:"-"`
	}
	d, err := BuildDescriptor(reflect.TypeOf(withTransient{}), DefaultIDMapper)
	require.NoError(t, err)
	require.Len(t, d.fields, 1)
	require.Equal(t, "kept", d.fields[0].name)
}

func TestBuildDescriptorStableSchemaDerivesFromFields(t *testing.T) {
	d, err := BuildDescriptor(reflect.TypeOf(dDerived{}), DefaultIDMapper)
	require.NoError(t, err)
	schema := d.Schema()
	require.Equal(t, 2, schema.Len())
	require.Equal(t, []int32{d.fields[0].fieldID, d.fields[1].fieldID}, schema.FieldIDs())
}

func TestBuildDescriptorMetadataMapOnlyWhenEnabled(t *testing.T) {
	d, err := BuildDescriptor(reflect.TypeOf(dDerived{}), DefaultIDMapper)
	require.NoError(t, err)
	require.Nil(t, d.MetadataMap())

	d2, err := BuildDescriptor(reflect.TypeOf(dDerived{}), DefaultIDMapper, WithMetadataEnabled(true))
	require.NoError(t, err)
	require.Len(t, d2.MetadataMap(), 2)
}

func TestBuildDescriptorWithTypeNameOverridesTypeID(t *testing.T) {
	d1, err := BuildDescriptor(reflect.TypeOf(dBase{}), DefaultIDMapper)
	require.NoError(t, err)

	d2, err := BuildDescriptor(reflect.TypeOf(dBase{}), DefaultIDMapper, WithTypeName("CustomName"))
	require.NoError(t, err)

	require.NotEqual(t, d1.TypeID(), d2.TypeID())
	require.Equal(t, "CustomName", d2.TypeName())
}
