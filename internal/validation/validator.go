// Copyright 2022 Dimitrij Drus <dadrus@gmx.de>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package validation

import (
	"errors"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
)

//nolint:gochecknoglobals
var DefaultValidator = mustValidator()

// Validator validates configuration structs and renders failures in english, naming fields by
// their mapstructure or koanf key.
type Validator struct {
	v *validator.Validate
	t ut.Translator
}

func mustValidator() *Validator {
	v, err := newValidator(builtInRules...)
	if err != nil {
		panic(err)
	}

	return v
}

func newValidator(rules ...rule) (*Validator, error) {
	enLoc := en.New()
	translator, _ := ut.New(enLoc, enLoc).GetTranslator("en")
	validate := validator.New(validator.WithRequiredStructEnabled())

	if err := entranslations.RegisterDefaultTranslations(validate, translator); err != nil {
		return nil, err
	}

	if err := registerTranslations(validate, translator); err != nil {
		return nil, err
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("mapstructure")
		if len(name) == 0 {
			name = fld.Tag.Get("koanf")
		}

		if len(name) == 0 {
			name = fld.Name
		}

		name, _, _ = strings.Cut(name, ",")

		return "'" + name + "'"
	})

	for _, r := range rules {
		if err := r.register(validate, translator); err != nil {
			return nil, err
		}
	}

	return &Validator{v: validate, t: translator}, nil
}

// ValidateStruct returns nil if s is valid. Otherwise the error lists the translated failures
// sorted and separated by comma. It unwraps to validator.ValidationErrors.
func (v *Validator) ValidateStruct(s any) error {
	err := v.v.Struct(s)

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err
	}

	return &invalidError{
		msg:  strings.Join(slices.Sorted(maps.Values(errs.Translate(v.t))), ", "),
		errs: errs,
	}
}

func ValidateStruct(s any) error { return DefaultValidator.ValidateStruct(s) }

type invalidError struct {
	msg  string
	errs validator.ValidationErrors
}

func (e *invalidError) Error() string { return e.msg }

func (e *invalidError) Unwrap() error { return e.errs }
