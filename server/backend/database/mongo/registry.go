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

package mongo

import (
	"fmt"
	"reflect"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/docvault/docvault/api/types"
)

var tValues = reflect.TypeOf(types.Values{})

// NewRegistry returns the default registry extended with codecs for
// DocVault types. Field values are stored in their canonical JSON form so
// that every store serializes them identically.
func NewRegistry() *bson.Registry {
	reg := bson.NewRegistry()
	reg.RegisterTypeEncoder(tValues, bson.ValueEncoderFunc(valuesEncoder))
	reg.RegisterTypeDecoder(tValues, bson.ValueDecoderFunc(valuesDecoder))
	return reg
}

func valuesEncoder(_ bson.EncodeContext, vw bson.ValueWriter, val reflect.Value) error {
	if !val.IsValid() || val.Type() != tValues {
		return bson.ValueEncoderError{Name: "valuesEncoder", Types: []reflect.Type{tValues}, Received: val}
	}

	data, err := val.Interface().(types.Values).Canonical()
	if err != nil {
		return fmt.Errorf("encode values: %w", err)
	}
	if err := vw.WriteString(string(data)); err != nil {
		return fmt.Errorf("encode values: %w", err)
	}
	return nil
}

func valuesDecoder(_ bson.DecodeContext, vr bson.ValueReader, val reflect.Value) error {
	if !val.CanSet() || val.Type() != tValues {
		return bson.ValueDecoderError{Name: "valuesDecoder", Types: []reflect.Type{tValues}, Received: val}
	}

	data, err := vr.ReadString()
	if err != nil {
		return fmt.Errorf("decode values: %w", err)
	}

	values, err := types.DecodeValues([]byte(data))
	if err != nil {
		return fmt.Errorf("decode values: %w", err)
	}
	val.Set(reflect.ValueOf(values))
	return nil
}
