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
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		code     StatusCode
		want     string
		isClient bool
	}{
		{ErrCodeInvalidArgument, "invalid_argument", true},
		{ErrCodeNotFound, "not_found", true},
		{ErrCodeAlreadyExists, "already_exists", true},
		{ErrCodeFailedPrecondition, "failed_precondition", true},
		{ErrCodeAborted, "aborted", true},
		{ErrCodeInternal, "internal", false},
		{ErrCodeDataLoss, "data_loss", false},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.String())
			assert.Equal(t, tt.isClient, tt.code.IsClientError())
			assert.Equal(t, !tt.isClient, tt.code.IsServerError())
		})
	}

	assert.Equal(t, "code_999", StatusCode(999).String())
	assert.True(t, ErrCodeAborted.IsRetryable())
	assert.False(t, ErrCodeNotFound.IsRetryable())
}

func TestStatusError(t *testing.T) {
	errDocNotFound := NotFound("document not found").WithCode("ErrDocumentNotFound")

	t.Run("sentinel compare test", func(t *testing.T) {
		wrapped := fmt.Errorf("find document abc: %w", errDocNotFound)
		assert.ErrorIs(t, wrapped, errDocNotFound)
		assert.Equal(t, ErrCodeNotFound, StatusOf(wrapped))
		assert.Equal(t, "ErrDocumentNotFound", CodeOf(wrapped))
		assert.Equal(t, "find document abc: document not found", wrapped.Error())
	})

	t.Run("distinct sentinels test", func(t *testing.T) {
		other := NotFound("document not found").WithCode("ErrDocumentNotFound")
		assert.False(t, errors.Is(other, errDocNotFound))
	})

	t.Run("plain error test", func(t *testing.T) {
		err := errors.New("boom")
		assert.Equal(t, StatusCode(0), StatusOf(err))
		assert.Equal(t, "", CodeOf(err))
		assert.Equal(t, StatusCode(0), StatusOf(nil))
		assert.False(t, IsClientError(err))
	})

	t.Run("constructors test", func(t *testing.T) {
		assert.True(t, IsStatus(InvalidArgument("x"), ErrCodeInvalidArgument))
		assert.True(t, IsStatus(AlreadyExists("x"), ErrCodeAlreadyExists))
		assert.True(t, IsStatus(FailedPrecond("x"), ErrCodeFailedPrecondition))
		assert.True(t, IsStatus(Aborted("x"), ErrCodeAborted))
		assert.True(t, IsStatus(Internal("x"), ErrCodeInternal))
		assert.True(t, IsServerError(DataLoss("x")))
	})
}

func TestMetadata(t *testing.T) {
	errInvalidTarget := InvalidArgument("invalid link target").WithCode("ErrInvalidLinkTarget")

	t.Run("attach and read test", func(t *testing.T) {
		err := WithMetadata(errInvalidTarget, map[string]string{"field": "customer"})
		err = fmt.Errorf("reconcile links: %w", err)

		assert.ErrorIs(t, err, errInvalidTarget)
		assert.Equal(t, ErrCodeInvalidArgument, StatusOf(err))
		assert.Equal(t, map[string]string{"field": "customer"}, Metadata(err))
	})

	t.Run("merge test", func(t *testing.T) {
		err := WithMetadata(errInvalidTarget, map[string]string{"field": "customer", "target": "a"})
		err = WithMetadata(err, map[string]string{"target": "b"})

		assert.Equal(t, map[string]string{"field": "customer", "target": "b"}, Metadata(err))
		assert.ErrorIs(t, err, errInvalidTarget)
	})

	t.Run("empty metadata test", func(t *testing.T) {
		assert.Equal(t, errInvalidTarget, WithMetadata(errInvalidTarget, nil))
		assert.Nil(t, WithMetadata(nil, map[string]string{"a": "b"}))
		assert.Nil(t, Metadata(errInvalidTarget))
	})

	t.Run("returned copy test", func(t *testing.T) {
		err := WithMetadata(errInvalidTarget, map[string]string{"field": "customer"})
		md := Metadata(err)
		md["field"] = "changed"
		assert.Equal(t, "customer", Metadata(err)["field"])
	})
}
