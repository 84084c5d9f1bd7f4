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
	"reflect"
	"strconv"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

// comparisons lists the tags, the default english translations render
// durations as plain numbers for.
//
//nolint:gochecknoglobals
var comparisons = map[string]string{
	"gt":  "{0} must be greater than {1}",
	"gte": "{0} must be {1} or greater",
}

func registerTranslations(validate *validator.Validate, trans ut.Translator) error {
	for tag, durationText := range comparisons {
		err := validate.RegisterTranslation(tag, trans,
			func(ut ut.Translator) error { return ut.Add(tag+"-duration", durationText, false) },
			comparisonTranslation(tag),
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func comparisonTranslation(tag string) validator.TranslationFunc {
	return func(ut ut.Translator, fe validator.FieldError) string {
		kind := fe.Kind()
		if kind == reflect.Ptr {
			kind = fe.Type().Elem().Kind()
		}

		if kind == reflect.Int64 && fe.Type() == reflect.TypeOf(time.Duration(0)) {
			return translateOrFallback(fe)(ut.T(tag+"-duration", fe.Field(), fe.Param()))
		}

		param, err := strconv.ParseFloat(fe.Param(), 64)
		if err != nil {
			return fe.Error()
		}

		var digits uint64
		if idx := strings.Index(fe.Param(), "."); idx != -1 {
			digits = uint64(len(fe.Param()[idx+1:])) //nolint:gosec
		}

		switch kind {
		case reflect.String:
			count, err := ut.C(tag+"-string-character", param, digits, ut.FmtNumber(param, digits))
			if err != nil {
				return fe.Error()
			}

			return translateOrFallback(fe)(ut.T(tag+"-string", fe.Field(), count))
		case reflect.Slice, reflect.Map, reflect.Array:
			count, err := ut.C(tag+"-items-item", param, digits, ut.FmtNumber(param, digits))
			if err != nil {
				return fe.Error()
			}

			return translateOrFallback(fe)(ut.T(tag+"-items", fe.Field(), count))
		default:
			return translateOrFallback(fe)(ut.T(tag+"-number", fe.Field(), ut.FmtNumber(param, digits)))
		}
	}
}

func translateOrFallback(fe validator.FieldError) func(string, error) string {
	return func(translation string, err error) string {
		if err != nil {
			return fe.Error()
		}

		return translation
	}
}
