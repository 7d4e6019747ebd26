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

package errors

import (
	"errors"
	"maps"
)

// MetadataError attaches key-value details to an error, e.g. the field and
// the target id of a rejected link.
type MetadataError struct {
	err      error
	metadata map[string]string
}

func (e MetadataError) Error() string {
	return e.err.Error()
}

// Status returns the status of the wrapped error.
func (e MetadataError) Status() StatusCode {
	return StatusOf(e.err)
}

func (e MetadataError) Unwrap() error {
	return e.err
}

// Metadata returns a copy of the attached details.
func (e MetadataError) Metadata() map[string]string {
	return maps.Clone(e.metadata)
}

// WithMetadata wraps err with the given details. Details already attached to
// err are merged, and the new ones win on conflicting keys.
func WithMetadata(err error, metadata map[string]string) error {
	if err == nil {
		return nil
	}
	if len(metadata) == 0 {
		return err
	}

	merged := make(map[string]string, len(metadata))
	if metaErr, ok := err.(MetadataError); ok {
		maps.Copy(merged, metaErr.metadata)
		err = metaErr.err
	}
	maps.Copy(merged, metadata)

	return MetadataError{
		err:      err,
		metadata: merged,
	}
}

// Metadata returns the details attached to err, or nil.
func Metadata(err error) map[string]string {
	var metaErr MetadataError
	if errors.As(err, &metaErr) {
		return metaErr.Metadata()
	}

	return nil
}
