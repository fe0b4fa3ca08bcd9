// Copyright 2020-2025 Buf Technologies, Inc.
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

package osmix

import (
	"errors"
	"fmt"
)

// ErrorKind identifies the semantic class of an *Error, per the error kinds
// enumerated for this toolkit: malformed input, contract violations, and
// internal conditions that are always resolved before they reach a caller.
type ErrorKind int

const (
	errKindOK ErrorKind = iota
	// KindMalformedPbf: truncated blob, size limit exceeded, unknown
	// required field, or compression failure. Fatal to the in-progress
	// ingest; the target Osm is discarded.
	KindMalformedPbf
	// KindNonDenseNodes: a block contains non-dense node entries. Readers
	// only accept dense nodes.
	KindNonDenseNodes
	// KindMissingReference: a way ref or relation member refers to an
	// entity absent from a reference-complete index.
	KindMissingReference
	// KindNotReady: a read API was called before BuildIndexes.
	KindNotReady
	// KindDuplicateID: two entities with the same ID were appended to the
	// same store.
	KindDuplicateID
	// KindEncodingOverflow: a block-local string table grew past its
	// limit during encode. Resolved internally by splitting the block;
	// this kind is retained for diagnostics, it is never returned from a
	// public API.
	KindEncodingOverflow
)

var kindMessages = [...]error{
	errKindOK:            nil,
	KindMalformedPbf:     errors.New("malformed pbf input"),
	KindNonDenseNodes:    errors.New("block contains non-dense node entries"),
	KindMissingReference: errors.New("reference to a missing entity"),
	KindNotReady:         errors.New("index not ready: call BuildIndexes first"),
	KindDuplicateID:      errors.New("duplicate entity id on append"),
	KindEncodingOverflow: errors.New("block-local string table overflow"),
}

func (k ErrorKind) String() string {
	switch k {
	case KindMalformedPbf:
		return "MalformedPbf"
	case KindNonDenseNodes:
		return "NonDenseNodes"
	case KindMissingReference:
		return "MissingReference"
	case KindNotReady:
		return "NotReady"
	case KindDuplicateID:
		return "DuplicateID"
	case KindEncodingOverflow:
		return "EncodingOverflow"
	default:
		return "Unknown"
	}
}

// Error is the error type returned by every fallible operation in this
// module. Offset, when non-zero, is the byte offset into the input at which
// the condition was detected (decode errors only).
type Error struct {
	Kind   ErrorKind
	Offset int64
	Err    error
}

// NewError constructs an *Error of the given kind, wrapping err (which may
// be nil, in which case the kind's default message is used).
func NewError(kind ErrorKind, offset int64, err error) *Error {
	return &Error{Kind: kind, Offset: offset, Err: err}
}

// Unwrap implements error unwrapping via [errors.Unwrap].
func (e *Error) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return kindMessages[e.Kind]
}

// Error implements [error].
func (e *Error) Error() string {
	if e.Offset != 0 {
		return fmt.Sprintf("osmix: %s at offset %d: %v", e.Kind, e.Offset, e.Unwrap())
	}
	return fmt.Sprintf("osmix: %s: %v", e.Kind, e.Unwrap())
}

// IsKind reports whether err is an *Error of the given kind, unwrapping
// through any wrapping errors along the way.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
