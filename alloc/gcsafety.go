// Copyright 2024 The corebase Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package alloc

import (
	"reflect"
	"sync"
)

// HasPointers reports whether T's in-memory representation may hold a
// pointer the garbage collector needs to trace: a string or slice header,
// a map/chan/func/interface value, an unsafe.Pointer, or any of those
// nested inside an array or struct field.
//
// This matters because HeapAllocator.Alloc is make([]byte, n) under the
// hood (alloc/heap.go), and make([]byte, n) is noscan -- byte has no
// pointers, so the Go runtime never scans that memory for embedded
// pointers. A container that takes such a []byte buffer and reinterprets
// it via unsafe.Slice as a typed []T, then stores a pointer-containing T
// into it (a string, for instance), is invisible to the GC: the buffer
// itself stays reachable through the container, but whatever the stored
// string's backing array points at is not traced through this path and can
// be collected out from under the container, corrupting it. varray and
// hashmap call HasPointers for their element/key/value type parameters and
// fall back to an ordinary GC-tracked make() for any T that needs one,
// restricting the allocator-backed unsafe.Slice path to pointer-free T
// (spec.md's own inline-vs-boxed split for trivial vs. non-trivial types,
// read the safe way: "trivial" means "safe to store in raw allocator
// memory", not merely "fits in a machine word").
func HasPointers[T any]() bool {
	var zero T
	t := reflect.TypeOf(&zero).Elem()
	if v, ok := hasPointersCache.Load(t); ok {
		return v.(bool)
	}
	result := typeHasPointers(t)
	hasPointersCache.Store(t, result)
	return result
}

var hasPointersCache sync.Map // reflect.Type -> bool

func typeHasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.String,
		reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return true
	case reflect.Array:
		return t.Len() > 0 && typeHasPointers(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if typeHasPointers(t.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
