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

package integrity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/docvault/docvault/pkg/integrity"
)

func TestSigner(t *testing.T) {
	signer, err := integrity.NewSigner("version-secret")
	require.NoError(t, err)

	data := []byte(`{"name":{"text":"Jane"}}`)

	t.Run("deterministic test", func(t *testing.T) {
		h1, s1 := signer.Seal(data)
		h2, s2 := signer.Seal(data)
		assert.Equal(t, h1, h2)
		assert.Equal(t, s1, s2)
		assert.Len(t, h1, 64)
		assert.Len(t, s1, 64)
	})

	t.Run("verify test", func(t *testing.T) {
		h, s := signer.Seal(data)
		assert.True(t, signer.Verify(data, h, s).Passed())

		tampered := []byte(`{"name":{"text":"John"}}`)
		result := signer.Verify(tampered, h, s)
		assert.False(t, result.Passed())
		assert.False(t, result.HashMatched)
		assert.False(t, result.SignatureMatched)
		assert.Equal(t, h, result.ExpectedHash)
		assert.NotEqual(t, h, result.ActualHash)
	})

	t.Run("rehashed tamper test", func(t *testing.T) {
		_, s := signer.Seal(data)
		tampered := []byte(`{"name":{"text":"John"}}`)

		result := signer.Verify(tampered, integrity.Hash(tampered), s)
		assert.True(t, result.HashMatched)
		assert.False(t, result.Passed())
	})

	t.Run("different secret test", func(t *testing.T) {
		other, err := integrity.NewSigner("another-secret")
		require.NoError(t, err)

		h, s := signer.Seal(data)
		assert.False(t, other.Verify(data, h, s).Passed())
	})

	t.Run("malformed signature test", func(t *testing.T) {
		h, _ := signer.Seal(data)
		assert.False(t, signer.Verify(data, h, "zz").SignatureMatched)
	})

	t.Run("empty secret test", func(t *testing.T) {
		_, err := integrity.NewSigner("")
		assert.ErrorIs(t, err, integrity.ErrEmptySecret)
	})

	t.Run("byte flip property test", func(t *testing.T) {
		rapid.Check(t, func(t *rapid.T) {
			payload := rapid.SliceOfN(rapid.Byte(), 1, 256).Draw(t, "payload")
			h, s := signer.Seal(payload)

			i := rapid.IntRange(0, len(payload)-1).Draw(t, "index")
			flip := rapid.ByteRange(1, 255).Draw(t, "flip")
			tampered := append([]byte(nil), payload...)
			tampered[i] ^= flip

			if !signer.Verify(payload, h, s).Passed() {
				t.Fatalf("untouched payload failed verification")
			}
			if signer.Verify(tampered, h, s).Passed() {
				t.Fatalf("tampered payload passed verification")
			}
		})
	})
}
