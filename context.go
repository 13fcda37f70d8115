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
)

// Context owns everything the codec needs that must be shared across many
// writes and reads: the IdMapper, the known TypeDescriptors, the
// SchemaRegistry, and the MetadataCoordinator.
//
// There is no process-wide default Context; callers construct one
// explicitly with NewContext and pass it into every Writer/Reader.
//
// Registering a type is serialized under a single mutex. Once a
// TypeDescriptor is published it is immutable; lookups by typeId
// (DescriptorByID) go through byTypeID and never take that lock, while
// lookups by Go type (DescriptorFor) take it briefly.
type Context struct {
	idMapper IdMapper

	mu          sync.Mutex
	byGoType    map[reflect.Type]*TypeDescriptor
	byTypeID    sync.Map // int32 -> *TypeDescriptor, published after mu-guarded build
	registry    *SchemaRegistry
	coordinator *MetadataCoordinator
}

// ContextOption configures NewContext.
type ContextOption func(*Context)

// WithContextIDMapper overrides the default IdMapper for every type
// registered in this Context unless a type supplies its own via
// WithIDMapper.
func WithContextIDMapper(m IdMapper) ContextOption {
	return func(c *Context) { c.idMapper = m }
}

// WithMetadataUpdate installs the metadata transport callback invoked by
// the MetadataCoordinator whenever a new schema is discovered. publish may
// block the calling write; for a fire-and-forget variant, have the
// callback enqueue to a channel and return immediately.
func WithMetadataUpdate(publish MetadataUpdateFunc) ContextOption {
	return func(c *Context) { c.coordinator.publish = publish }
}

// NewContext constructs a ready-to-use Context.
func NewContext(opts ...ContextOption) *Context {
	c := &Context{
		idMapper: DefaultIDMapper,
		byGoType: make(map[reflect.Type]*TypeDescriptor),
		registry: NewSchemaRegistry(),
	}
	c.coordinator = newMetadataCoordinator(c.registry)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Registry returns this Context's SchemaRegistry.
func (c *Context) Registry() *SchemaRegistry { return c.registry }

// Register builds and publishes a TypeDescriptor for goType (a struct, or
// pointer to one). It is safe to call concurrently for the same type;
// the first caller wins and later callers observe the same descriptor.
func (c *Context) Register(goType reflect.Type, opts ...DescriptorOption) (*TypeDescriptor, error) {
	for goType.Kind() == reflect.Pointer {
		goType = goType.Elem()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.byGoType[goType]; ok {
		return existing, nil
	}

	d, err := BuildDescriptor(goType, c.idMapper, opts...)
	if err != nil {
		return nil, err
	}

	if _, collision := c.byTypeID.Load(d.typeID); collision {
		// Same numeric space, different Go type: a genuine cross-type
		// name collision.
		old, _ := c.byTypeID.Load(d.typeID)
		if old.(*TypeDescriptor).goType != d.goType {
			return nil, &ConfigError{TypeName: d.typeName, Reason: "typeId collides with " + old.(*TypeDescriptor).typeName}
		}
	}

	c.byGoType[goType] = d
	c.byTypeID.Store(d.typeID, d)
	return d, nil
}

// DescriptorFor returns the published descriptor for goType, if any has
// been registered.
func (c *Context) DescriptorFor(goType reflect.Type) (*TypeDescriptor, bool) {
	for goType.Kind() == reflect.Pointer {
		goType = goType.Elem()
	}
	c.mu.Lock()
	d, ok := c.byGoType[goType]
	c.mu.Unlock()
	return d, ok
}

// DescriptorByID returns the published descriptor for typeID, if any has
// been registered. Used by the Reader to resolve a decoded header's
// typeId back to Go-level field names.
func (c *Context) DescriptorByID(typeID int32) (*TypeDescriptor, bool) {
	v, ok := c.byTypeID.Load(typeID)
	if !ok {
		return nil, false
	}
	return v.(*TypeDescriptor), true
}

// coordinatorFor exposes the MetadataCoordinator to the Writer.
func (c *Context) coordinatorFor() *MetadataCoordinator { return c.coordinator }
