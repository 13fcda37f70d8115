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
	"errors"
	"fmt"
)

// The error kinds a caller can match against with errors.Is. The wrapping
// types below (*DecodeError, *ConfigError, *MetadataError) attach
// positional or identity context and implement Unwrap() so errors.Is
// still works through them.
var (
	ErrCorruptFrame     = errors.New("portable: corrupt frame")
	ErrUnknownSchema    = errors.New("portable: unknown schema")
	ErrUnknownType      = errors.New("portable: unknown type")
	ErrTypeConfig       = errors.New("portable: type configuration error")
	ErrMetadataConflict = errors.New("portable: metadata conflict")
	ErrUserHookFailed   = errors.New("portable: user hook failed")
	ErrUnsupportedValue = errors.New("portable: unsupported value")
)

// DecodeError is returned by Reader operations. It always wraps one of
// ErrCorruptFrame, ErrUnknownSchema or ErrUnknownType, and carries the byte offset at
// which the failure was detected.
type DecodeError struct {
	Err    error
	Offset int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("portable: decode error at offset %d/%#x: %v", e.Offset, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func decodeErr(err error, offset int) *DecodeError {
	return &DecodeError{Err: err, Offset: offset}
}

// ConfigError is returned by TypeDescriptor construction and registration.
// It always wraps ErrTypeConfig.
type ConfigError struct {
	TypeName string
	Reason   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("portable: type config error for %q: %s", e.TypeName, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrTypeConfig }

// MetadataError is returned when the MetadataCoordinator detects two
// conflicting definitions for the same field. It always wraps
// ErrMetadataConflict.
type MetadataError struct {
	TypeID   int32
	Field    string
	Old, New Tag
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("portable: metadata conflict for type %d field %q: %v != %v",
		e.TypeID, e.Field, e.Old, e.New)
}

func (e *MetadataError) Unwrap() error { return ErrMetadataConflict }

// HookError wraps an error returned by a user-supplied serializer hook
// (ExternalSerializer or CustomSerializer). It always wraps
// ErrUserHookFailed. WriteReplace and ReadResolve return no error, and a
// panic raised by any hook is not recovered, so neither produces a
// HookError.
type HookError struct {
	Hook string // "writeExternal", "readExternal", "writeBinary" or "readBinary"
	Err  error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("portable: %s hook failed: %v", e.Hook, e.Err)
}

func (e *HookError) Unwrap() error { return errors.Join(ErrUserHookFailed, e.Err) }
