package transform

// SwapRedBlue writes src to dst with bytes 0 and 2 of every 4-byte pixel
// exchanged, turning BGRA into RGBA and back. Bytes 1 and 3 (green, alpha)
// are copied unchanged. dst may alias src. It returns the number of bytes
// written, which is len(src) rounded down to whole pixels.
func SwapRedBlue(dst, src []byte) int {
	n := len(src) &^ 3
	if len(dst) < n {
		n = len(dst) &^ 3
	}
	for i := 0; i < n; i += 4 {
		b, g, r, a := src[i], src[i+1], src[i+2], src[i+3]
		dst[i], dst[i+1], dst[i+2], dst[i+3] = r, g, b, a
	}
	return n
}

// DecimatedSize is the output size of DecimateStride2 for a width×height
// input.
func DecimatedSize(width, height int) (int, int) {
	return width / 2, height / 2
}

// DecimateStride2 halves a tightly packed 4-byte-per-pixel image in both
// axes. Output pixel (x, y) is input pixel (2x+1, 2y+1): the odd-indexed
// rows are kept, and within them the odd-indexed columns, counting from 0.
// A trailing even row or column of an odd-sized input is dropped. The result
// is a new allocation.
func DecimateStride2(src []byte, width, height int) ([]byte, int, int) {
	w, h := DecimatedSize(width, height)
	dst := make([]byte, w*h*4)
	srcStride := width * 4
	for y := 0; y < h; y++ {
		row := src[(2*y+1)*srcStride:]
		out := dst[y*w*4:]
		for x := 0; x < w; x++ {
			copy(out[x*4:x*4+4], row[(2*x+1)*4:(2*x+1)*4+4])
		}
	}
	return dst, w, h
}
