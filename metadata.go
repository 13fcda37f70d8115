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
	"sync"

	"golang.org/x/sync/singleflight"
)

// PublishedMetadata is what a MetadataCoordinator hands to the transport
// callback whenever a type's field set or schema set grows.
type PublishedMetadata struct {
	TypeID      int32
	TypeName    string
	Fields      map[string]Tag
	AffinityKey string
	Schemas     []Schema
}

// MetadataUpdateFunc is the caller-supplied transport callback. It may block the calling write until
// the cluster acknowledges; callers that want fire-and-forget semantics
// should have it enqueue and return immediately.
type MetadataUpdateFunc func(PublishedMetadata)

// MetadataCoordinator detects schema evolution during writes and merges
// per-type metadata before publishing it.
//
// The common path — a write whose schemaId is already registered — does
// no metadata work at all, since nothing changed. Only a genuinely new
// schema triggers the merge-and-publish path, which runs through a
// singleflight.Group keyed by "typeId/schemaId" so that N writers racing
// to report the same brand-new schema run the merge exactly once instead
// of N times, giving descriptor/metadata creation serialized semantics
// without resorting to a hand-rolled per-key mutex table.
type MetadataCoordinator struct {
	registry *SchemaRegistry
	publish  MetadataUpdateFunc

	group singleflight.Group

	mu       sync.Mutex
	merged   map[int32]*PublishedMetadata // typeId -> accumulated metadata
}

func newMetadataCoordinator(reg *SchemaRegistry) *MetadataCoordinator {
	return &MetadataCoordinator{
		registry: reg,
		merged:   make(map[int32]*PublishedMetadata),
	}
}

// observe is called from postWrite for a user-type object, after its
// footer is emitted and before its header is back-patched. schema
// is the schema just emitted; fields is the name->typeTag map collected
// for that write (nil for EXTERNAL/ModeExcluded types, which never reach
// here).
func (m *MetadataCoordinator) observe(d *TypeDescriptor, schema Schema, fields map[string]Tag) error {
	if _, ok := m.registry.Lookup(d.typeID, schema.ID()); ok {
		return nil // common path: nothing new.
	}

	key := fmt.Sprintf("%d/%d", d.typeID, schema.ID())
	_, err, _ := m.group.Do(key, func() (any, error) {
		// Re-check under the singleflight key: another goroutine may have
		// won the race and already inserted this schema while we were
		// waiting to be scheduled.
		if _, ok := m.registry.Lookup(d.typeID, schema.ID()); ok {
			return nil, nil
		}

		merged, err := m.mergeFields(d, fields)
		if err != nil {
			return nil, err
		}

		if err := m.registry.Insert(d.typeID, schema); err != nil {
			return nil, err
		}
		if m.publish != nil {
			m.publish(PublishedMetadata{
				TypeID:      d.typeID,
				TypeName:    d.typeName,
				Fields:      merged,
				AffinityKey: d.affinityKeyField,
				Schemas:     m.registry.Schemas(d.typeID),
			})
		}
		return nil, nil
	})
	return err
}

// mergeFields unions fields into the accumulated metadata for d.typeID,
// returning a snapshot copy safe to publish. A type-tag conflict on a
// recurring field name is a fatal MetadataConflict: checked in full
// before anything is stored, so a rejected merge leaves the accumulated
// metadata untouched.
func (m *MetadataCoordinator) mergeFields(d *TypeDescriptor, fields map[string]Tag) (map[string]Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pm, ok := m.merged[d.typeID]
	if !ok {
		pm = &PublishedMetadata{TypeID: d.typeID, TypeName: d.typeName, Fields: map[string]Tag{}}
		m.merged[d.typeID] = pm
	}

	for name, tag := range fields {
		if existing, ok := pm.Fields[name]; ok && existing != tag {
			return nil, &MetadataError{TypeID: d.typeID, Field: name, Old: existing, New: tag}
		}
	}
	for name, tag := range fields {
		pm.Fields[name] = tag
	}

	snapshot := make(map[string]Tag, len(pm.Fields))
	for k, v := range pm.Fields {
		snapshot[k] = v
	}
	return snapshot, nil
}
