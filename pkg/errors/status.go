/*
 * Copyright 2026 The DocVault Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package errors provides status-carrying errors shared by every layer of
// DocVault. A status tells the caller what kind of failure happened, and a
// code names the concrete failure so that callers can branch on it.
package errors

import "fmt"

// StatusCode classifies an error. The numeric values follow the gRPC codes so
// that a transport layer can map them without a lookup table.
type StatusCode int

const (
	// ErrCodeInvalidArgument means the input is wrong regardless of system state.
	ErrCodeInvalidArgument StatusCode = 3

	// ErrCodeNotFound means a requested entity does not exist.
	ErrCodeNotFound StatusCode = 5

	// ErrCodeAlreadyExists means the entity a caller tried to create exists.
	ErrCodeAlreadyExists StatusCode = 6

	// ErrCodeFailedPrecondition means the system is not in the state required
	// by the operation, e.g. a document is still referenced.
	ErrCodeFailedPrecondition StatusCode = 9

	// ErrCodeAborted means the operation lost a race with a concurrent writer.
	// The caller may retry the whole operation.
	ErrCodeAborted StatusCode = 10

	// ErrCodeInternal means an invariant of the system is broken.
	ErrCodeInternal StatusCode = 13

	// ErrCodeDataLoss means stored data is corrupted or was altered.
	ErrCodeDataLoss StatusCode = 15
)

// String returns the snake case name of the status.
func (c StatusCode) String() string {
	switch c {
	case ErrCodeInvalidArgument:
		return "invalid_argument"
	case ErrCodeNotFound:
		return "not_found"
	case ErrCodeAlreadyExists:
		return "already_exists"
	case ErrCodeFailedPrecondition:
		return "failed_precondition"
	case ErrCodeAborted:
		return "aborted"
	case ErrCodeInternal:
		return "internal"
	case ErrCodeDataLoss:
		return "data_loss"
	default:
		return fmt.Sprintf("code_%d", int(c))
	}
}

// IsClientError returns true if the caller can fix the failure by changing
// its input or the state it depends on.
func (c StatusCode) IsClientError() bool {
	switch c {
	case ErrCodeInvalidArgument, ErrCodeNotFound, ErrCodeAlreadyExists,
		ErrCodeFailedPrecondition, ErrCodeAborted:
		return true
	default:
		return false
	}
}

// IsServerError returns true if the failure is on the server side.
func (c StatusCode) IsServerError() bool {
	switch c {
	case ErrCodeInternal, ErrCodeDataLoss:
		return true
	default:
		return false
	}
}

// IsRetryable returns true if retrying the same operation may succeed.
func (c StatusCode) IsRetryable() bool {
	return c == ErrCodeAborted
}
