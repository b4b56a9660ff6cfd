// Copyright 2024 The corebase Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package strx

import "unsafe"

// rawPointer returns the address of b's first byte, or nil for an empty
// slice, for passing to alloc.Ref.Free which expects the original
// allocation's starting address.
func rawPointer(b []byte) unsafe.Pointer {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Pointer(&b[0])
}
