// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package arena

import "unsafe"

func unsafeSizeof[T any](v T) uintptr {
	return unsafe.Sizeof(v)
}
