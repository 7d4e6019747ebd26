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

// Package integrity computes and verifies the hash and the signature of
// version snapshots.
package integrity

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/docvault/docvault/pkg/errors"
)

// keyInfo binds derived keys to their purpose so that the same secret never
// signs anything but version snapshots.
const keyInfo = "docvault/version-snapshot/v1"

// ErrEmptySecret is returned when a Signer is created without a secret.
var ErrEmptySecret = errors.InvalidArgument("signing secret is empty").WithCode("ErrEmptySecret")

// Signer hashes and signs canonical snapshots.
type Signer struct {
	key []byte
}

// NewSigner derives the signing key from the given secret with HKDF-SHA256.
func NewSigner(secret string) (*Signer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	key := make([]byte, sha256.Size)
	reader := hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo))
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("derive signing key: %w", err)
	}

	return &Signer{key: key}, nil
}

// Hash returns the hex encoded SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Sign returns the hex encoded HMAC-SHA256 of data.
func (s *Signer) Sign(data []byte) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write(data)
	return hex.EncodeToString(mac.Sum(nil))
}

// Seal returns both the hash and the signature of data.
func (s *Signer) Seal(data []byte) (dataHash, signature string) {
	return Hash(data), s.Sign(data)
}

// Result is the outcome of a verification.
type Result struct {
	// ExpectedHash is the hash stored alongside the data.
	ExpectedHash string

	// ActualHash is the hash recomputed from the data.
	ActualHash string

	HashMatched      bool
	SignatureMatched bool
}

// Passed returns whether both the hash and the signature matched.
func (r Result) Passed() bool {
	return r.HashMatched && r.SignatureMatched
}

// Verify recomputes the hash and the signature of data and compares them
// with the stored ones in constant time.
func (s *Signer) Verify(data []byte, dataHash, signature string) Result {
	actualHash := Hash(data)

	expectedMAC, err := hex.DecodeString(signature)
	signatureMatched := false
	if err == nil {
		mac := hmac.New(sha256.New, s.key)
		mac.Write(data)
		signatureMatched = hmac.Equal(mac.Sum(nil), expectedMAC)
	}

	return Result{
		ExpectedHash:     dataHash,
		ActualHash:       actualHash,
		HashMatched:      subtle.ConstantTimeCompare([]byte(actualHash), []byte(dataHash)) == 1,
		SignatureMatched: signatureMatched,
	}
}
