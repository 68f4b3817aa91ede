// Copyright 2025 Commune Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import "errors"

var (
	// ErrNotFound is returned when a requested key or record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrSkipUpdate can be returned from a KV.Update callback to leave the
	// stored value unchanged without failing the call.
	ErrSkipUpdate = errors.New("skip update")

	// ErrBackendRequired is returned when a repository is constructed
	// without a backend.
	ErrBackendRequired = errors.New("backend required")

	// ErrClosed is returned when an operation runs against a closed store.
	ErrClosed = errors.New("store closed")
)
