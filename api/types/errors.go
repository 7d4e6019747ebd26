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

package types

import "github.com/docvault/docvault/pkg/errors"

// ErrInvalidValue is returned when a serialized value cannot be decoded.
var ErrInvalidValue = errors.InvalidArgument("invalid value").WithCode("ErrInvalidValue")
