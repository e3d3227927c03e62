package kernel

// DirectEligible reports whether a strided blend/copy over a region of
// the given width can use the direct (linear-run) fast path instead of
// the row-by-row strided path. The source arm-2d implementation guards
// this with a chained comparison (`a == b == w`) that does not do what
// it looks like it does; the correct guard is the conjunction below.
func DirectEligible(srcStride, dstStride, width int32) bool {
	return srcStride == width && dstStride == width
}
