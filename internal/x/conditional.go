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

package x

// IfThenElse returns onTrue if cond holds, onFalse otherwise.
func IfThenElse[T any](cond bool, onTrue, onFalse T) T {
	if cond {
		return onTrue
	}

	return onFalse
}

// IfThenElseExec is IfThenElse for values, which are expensive to compute. Only
// the selected function is called.
func IfThenElseExec[T any](cond bool, onTrue, onFalse func() T) T {
	return IfThenElse(cond, onTrue, onFalse)()
}
