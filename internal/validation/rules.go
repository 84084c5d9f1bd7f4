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
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/iancoleman/strcase"
	"golang.org/x/net/http/httpguts"
)

// rule registers a tag with its english failure message. A rule without validate func only
// renders a built-in tag.
type rule struct {
	tag      string
	message  string
	validate validator.Func
	param    func(fe validator.FieldError) string
}

//nolint:gochecknoglobals
var builtInRules = []rule{
	{
		tag:     "header_name",
		message: "{0} must be a valid http header name",
		validate: func(fl validator.FieldLevel) bool {
			return httpguts.ValidHeaderFieldName(fl.Field().String())
		},
	},
	{
		tag:     "excluded_if",
		message: "{0} must not be set if {1}",
		param: func(fe validator.FieldError) string {
			field, value, _ := strings.Cut(fe.Param(), " ")

			return "'" + strcase.ToSnake(field) + "' is " + value
		},
	},
}

func (r rule) register(validate *validator.Validate, translator ut.Translator) error {
	if r.validate != nil {
		if err := validate.RegisterValidation(r.tag, r.validate); err != nil {
			return err
		}
	}

	return validate.RegisterTranslation(r.tag, translator,
		func(trans ut.Translator) error { return trans.Add(r.tag, r.message, true) },
		func(trans ut.Translator, fe validator.FieldError) string {
			param := fe.Param()
			if r.param != nil {
				param = r.param(fe)
			}

			return translateOrFallback(fe)(trans.T(r.tag, fe.Field(), param))
		})
}
