package native

import "unsafe"

// uintptrOfSlice returns the address of a slice's backing array, the
// form purego's registered functions expect for pointer parameters.
// The caller is responsible for keeping the slice alive (and thus the
// pointer valid) for the duration of the call, which holds here since
// Dispatch runs synchronously on the caller's pixel buffers.
func uintptrOfSlice(s []uint16) uintptr {
	if len(s) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(unsafe.SliceData(s)))
}
