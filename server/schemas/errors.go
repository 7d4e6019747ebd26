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

package schemas

import (
	"fmt"
	"strings"

	"github.com/docvault/docvault/pkg/errors"
)

var (
	// ErrValidation is matched by every ValidationError built from values.
	ErrValidation = errors.InvalidArgument("validation failed").WithCode("ErrValidation")

	// ErrUnknownField is returned when the input names a field the doctype
	// does not declare.
	ErrUnknownField = errors.InvalidArgument("unknown field").WithCode("ErrUnknownField")

	// ErrMissingRequiredField is returned when a required field is absent or
	// empty after merging.
	ErrMissingRequiredField = errors.InvalidArgument("missing required field").WithCode("ErrMissingRequiredField")

	// ErrInvalidFieldValue is returned when a value does not fit the declared
	// type of its field.
	ErrInvalidFieldValue = errors.InvalidArgument("invalid field value").WithCode("ErrInvalidFieldValue")

	// ErrDuplicateValue is returned when a unique field value is already held
	// by another live document of the same doctype.
	ErrDuplicateValue = errors.InvalidArgument("duplicate value").WithCode("ErrDuplicateValue")

	// ErrReadOnlyFieldModified is returned when an update changes a read-only
	// field.
	ErrReadOnlyFieldModified = errors.FailedPrecond("read-only field modified").WithCode("ErrReadOnlyFieldModified")

	// ErrInvalidFieldDef is returned when a doctype definition is malformed.
	ErrInvalidFieldDef = errors.InvalidArgument("invalid field definition").WithCode("ErrInvalidFieldDef")
)

// Violation is a single rule broken by one field.
type Violation struct {
	// Field is the name of the offending field. It is empty for violations of
	// the doctype itself.
	Field string

	// Err is one of the sentinel errors of this package.
	Err error

	// Detail describes the violation for humans.
	Detail string
}

func (v *Violation) Error() string {
	msg := v.Err.Error()
	if v.Field != "" {
		msg = v.Field + ": " + msg
	}
	if v.Detail != "" {
		msg += ": " + v.Detail
	}
	return msg
}

func (v *Violation) Unwrap() error {
	return v.Err
}

// ValidationError lists every violation found in one validation pass.
// errors.Is matches both the kind of the error (ErrValidation or
// ErrInvalidFieldDef) and the kind of each violation.
//
// When every violation is a read-only modification the status of the error
// is FailedPrecondition, otherwise it is InvalidArgument.
type ValidationError struct {
	Doctype    string
	Violations []*Violation

	kind error
}

func newValidationError(kind error, doctype string, violations []*Violation) *ValidationError {
	return &ValidationError{
		Doctype:    doctype,
		Violations: violations,
		kind:       kind,
	}
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Error())
	}
	return fmt.Sprintf("%s %q: %s", e.kind.Error(), e.Doctype, strings.Join(msgs, "; "))
}

func (e *ValidationError) Unwrap() []error {
	errs := make([]error, 0, len(e.Violations)+1)
	for _, v := range e.Violations {
		errs = append(errs, v)
	}

	if e.onlyReadOnly() {
		return append(errs, e.kind)
	}
	return append([]error{e.kind}, errs...)
}

// Fields returns the names of the offending fields in violation order.
func (e *ValidationError) Fields() []string {
	fields := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		fields = append(fields, v.Field)
	}
	return fields
}

func (e *ValidationError) onlyReadOnly() bool {
	for _, v := range e.Violations {
		if !errors.Is(v.Err, ErrReadOnlyFieldModified) {
			return false
		}
	}
	return len(e.Violations) > 0
}

// violations collects violations of one validation pass.
type violations []*Violation

func (vs *violations) add(field string, err error, format string, args ...any) {
	*vs = append(*vs, &Violation{
		Field:  field,
		Err:    err,
		Detail: fmt.Sprintf(format, args...),
	})
}

// errorOf returns a ValidationError of the given kind, or nil when nothing
// was collected.
func (vs violations) errorOf(kind error, doctype string) error {
	if len(vs) == 0 {
		return nil
	}
	return newValidationError(kind, doctype, vs)
}
