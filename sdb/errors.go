// Copyright 2020-2021 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sdb

import "gopkg.in/src-d/go-errors.v1"

// The two error kinds surfaced to callers, per spec §7. ExecutionError
// covers expected, user-facing failures; InternalError covers engine
// invariant violations.
var (
	ErrUnknownVariable = errors.NewKind("unknown variable: %s")
	ErrMissingBindParam = errors.NewKind("missing value for bind parameter: @%s")
	ErrTypeMismatch     = errors.NewKind("type mismatch: %s")
	ErrInvalidArgument  = errors.NewKind("invalid argument: %s")
	ErrDivisionByZero   = errors.NewKind("division by zero")
	ErrUnknownFunction  = errors.NewKind("unknown function: %s")
	ErrUnknownUnit      = errors.NewKind("unknown unit: %s")
	ErrUnknownTimezone  = errors.NewKind("unknown timezone: %s")
	ErrSelectorKey      = errors.NewKind("selector requires a _key")
	ErrUpsertUpdate     = errors.NewKind("UPSERT update expression did not evaluate to an object")
	ErrShardRouting     = errors.NewKind("shard routing returned an empty result: %s")
	ErrScatterGather    = errors.NewKind("scatter-gather contacted no replica successfully for shard %d")
	ErrCollectionNotFound = errors.NewKind("collection not found: %s")
	ErrDatabaseNotFound   = errors.NewKind("database not found: %s")
	ErrDocumentNotFound   = errors.NewKind("document not found: %s")
	ErrIndexOutOfRange    = errors.NewKind("index out of range")
	ErrInvalidRegex       = errors.NewKind("invalid regular expression: %s")
	ErrReadOnly           = errors.NewKind("engine is read-only: query contains a %s clause")
	ErrQueryParse         = errors.NewKind("query parse error: %s")

	ErrInternal = errors.NewKind("internal error: %s")
)

// IsExecutionError reports whether err was raised by one of the
// ExecutionError kinds above (as opposed to InternalError or a generic
// Go error from a collaborator).
func IsExecutionError(err error) bool {
	kinds := []*errors.Kind{
		ErrUnknownVariable, ErrMissingBindParam, ErrTypeMismatch, ErrInvalidArgument,
		ErrDivisionByZero, ErrUnknownFunction, ErrUnknownUnit, ErrUnknownTimezone,
		ErrSelectorKey, ErrUpsertUpdate, ErrShardRouting, ErrScatterGather,
		ErrCollectionNotFound, ErrDatabaseNotFound, ErrDocumentNotFound,
		ErrIndexOutOfRange, ErrInvalidRegex, ErrReadOnly, ErrQueryParse,
	}
	for _, k := range kinds {
		if k.Is(err) {
			return true
		}
	}
	return false
}
