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

package requestfactory

import (
	"context"
	"net/url"
)

// RequestFactory produces a raw, unauthenticated request bound to exactly the given target.
// Implementations must not perform any network I/O.
type RequestFactory interface {
	Create(ctx context.Context, target *url.URL) (*Request, error)
}

type FactoryFunc func(ctx context.Context, target *url.URL) (*Request, error)

func (f FactoryFunc) Create(ctx context.Context, target *url.URL) (*Request, error) {
	return f(ctx, target)
}
