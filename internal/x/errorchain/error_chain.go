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

package errorchain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/iancoleman/strcase"
)

type link struct {
	err  error
	msg  string
	next *link
}

func (l *link) String() string {
	if len(l.msg) == 0 {
		return l.err.Error()
	}

	return l.err.Error() + ": " + l.msg
}

type message struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
	Cause   string `json:"cause,omitempty"`
}

// ErrorChain links a sentinel error (the head) with the errors which caused it. errors.Is
// and errors.As only look at the head. Unwrap moves one link towards the root cause.
type ErrorChain struct { // nolint: errname
	head *link
	tail *link
}

func New(err error) *ErrorChain { return newChain(err, "") }

func NewWithMessage(err error, message string) *ErrorChain { return newChain(err, message) }

func NewWithMessagef(err error, format string, a ...any) *ErrorChain {
	return newChain(err, fmt.Sprintf(format, a...))
}

func newChain(err error, msg string) *ErrorChain {
	l := &link{err: err, msg: msg}

	return &ErrorChain{head: l, tail: l}
}

func (ec *ErrorChain) CausedBy(err error) *ErrorChain {
	l := &link{err: err}

	ec.tail.next = l
	ec.tail = l

	return ec
}

func (ec *ErrorChain) Error() string {
	parts := make([]string, 0, 2) //nolint:mnd

	for l := ec.head; l != nil; l = l.next {
		parts = append(parts, l.String())
	}

	return strings.Join(parts, ": ")
}

func (ec *ErrorChain) Unwrap() error {
	if ec.head.next == nil {
		return nil
	}

	return &ErrorChain{head: ec.head.next, tail: ec.tail}
}

func (ec *ErrorChain) Is(target error) bool { return errors.Is(ec.head.err, target) }

func (ec *ErrorChain) As(target any) bool { return errors.As(ec.head.err, target) }

// Errors returns all errors of the chain, starting with the head.
func (ec *ErrorChain) Errors() []error {
	var errs []error

	for l := ec.head; l != nil; l = l.next {
		errs = append(errs, l.err)
	}

	return errs
}

// RootCause returns the last error of the chain.
func (ec *ErrorChain) RootCause() error { return ec.tail.err }

func (ec *ErrorChain) MarshalJSON() ([]byte, error) {
	msg := message{
		Code:    strcase.ToLowerCamel(ec.head.err.Error()),
		Message: ec.head.msg,
	}

	if ec.tail != ec.head {
		msg.Cause = ec.tail.err.Error()
	}

	return json.Marshal(msg)
}
