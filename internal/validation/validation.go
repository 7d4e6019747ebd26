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

// Package validation wraps go-playground/validator with the tags and English
// messages used for doctype definitions and configuration.
package validation

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
)

const (
	identifierRegexString   = `^[a-z][a-z0-9_]*$`
	doctypeNameRegexString  = `^[A-Za-z][A-Za-z0-9 _\-]*$`
	noEdgeSpacesRegexString = `^\S(.*\S)?$`
)

var (
	identifierRegex   = regexp.MustCompile(identifierRegexString)
	doctypeNameRegex  = regexp.MustCompile(doctypeNameRegexString)
	noEdgeSpacesRegex = regexp.MustCompile(noEdgeSpacesRegexString)
)

var (
	defaultValidator = validator.New()
	defaultEn        = en.New()
	uni              = ut.New(defaultEn, defaultEn)

	// trans is the translator for the 'en' locale.
	trans, _ = uni.GetTranslator(defaultEn.Locale())
)

// FieldLevel is the field level interface.
type FieldLevel = validator.FieldLevel

// Violation is a single rule a value broke.
type Violation struct {
	Tag         string
	Field       string
	Err         error
	Description string
}

func (e Violation) Error() string {
	return e.Err.Error()
}

// StructError is the error returned by ValidateStruct.
type StructError struct {
	Violations []Violation
}

func (s StructError) Error() string {
	sb := strings.Builder{}

	for _, v := range s.Violations {
		sb.WriteString(v.Description)
		sb.WriteString("\n")
	}

	return strings.TrimSpace(sb.String())
}

// RegisterValidation registers a custom rule under the given tag. It is meant
// to be called from init functions.
func RegisterValidation(tag string, fn validator.Func) error {
	if err := defaultValidator.RegisterValidation(tag, fn); err != nil {
		return fmt.Errorf("register validation: %w", err)
	}
	return nil
}

// RegisterTranslation registers the English message of the given tag.
func RegisterTranslation(tag, msg string) error {
	if err := defaultValidator.RegisterTranslation(
		tag,
		trans,
		func(ut ut.Translator) error {
			if err := ut.Add(tag, msg, true); err != nil {
				return fmt.Errorf("register translation: %w", err)
			}
			return nil
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T(tag, fe.Field())
			return t
		},
	); err != nil {
		return fmt.Errorf("register translation: %w", err)
	}
	return nil
}

// ValidateValue validates a single value against the given tag expression.
func ValidateValue(v any, tag string) error {
	if err := defaultValidator.Var(v, tag); err != nil {
		for _, e := range err.(validator.ValidationErrors) {
			return Violation{
				Tag:         e.Tag(),
				Err:         e,
				Description: e.Translate(trans),
			}
		}
	}
	return nil
}

// ValidateStruct validates the struct and dives into nested slices that carry
// a `dive` tag.
func ValidateStruct(s any) error {
	if err := defaultValidator.Struct(s); err != nil {
		structError := &StructError{}
		for _, e := range err.(validator.ValidationErrors) {
			structError.Violations = append(structError.Violations, Violation{
				Tag:         e.Tag(),
				Field:       e.Namespace(),
				Err:         e,
				Description: e.Translate(trans),
			})
		}
		return structError
	}

	return nil
}

func mustRegister(tag, msg string, fn validator.Func) {
	if err := RegisterValidation(tag, fn); err != nil {
		fmt.Fprintf(os.Stderr, "validation %s: %v\n", tag, err)
		os.Exit(1)
	}
	if err := RegisterTranslation(tag, msg); err != nil {
		fmt.Fprintf(os.Stderr, "validation %s: %v\n", tag, err)
		os.Exit(1)
	}
}

func init() {
	if err := entranslations.RegisterDefaultTranslations(defaultValidator, trans); err != nil {
		fmt.Fprintf(os.Stderr, "validation register default translations: %v\n", err)
		os.Exit(1)
	}

	mustRegister(
		"identifier",
		"{0} must start with a lowercase letter and contain only lowercase letters, numbers, and underscore",
		func(level validator.FieldLevel) bool {
			return identifierRegex.MatchString(level.Field().String())
		},
	)

	mustRegister(
		"doctype_name",
		"{0} must start with a letter and contain only letters, numbers, space, hyphen, and underscore",
		func(level validator.FieldLevel) bool {
			val := level.Field().String()
			return doctypeNameRegex.MatchString(val) && noEdgeSpacesRegex.MatchString(val)
		},
	)

	mustRegister(
		"duration",
		"{0} must be a valid time duration string format",
		func(level validator.FieldLevel) bool {
			_, err := time.ParseDuration(level.Field().String())
			return err == nil
		},
	)
}
