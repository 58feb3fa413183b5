package core

import "fmt"

// Normalize pads every row to the width of the widest row so any resolved
// column can be indexed on any row. Data rows are padded with Empty();
// header cells beyond the original header get placeholder names "Column N"
// (N is the 1-based column position). Rows are never truncated and the
// input matrix is not modified.
func Normalize(m Matrix) Matrix {
	if len(m) == 0 {
		return Matrix{}
	}

	width := 0
	for _, row := range m {
		width = max(width, len(row))
	}

	out := make(Matrix, len(m))
	for i, row := range m {
		padded := make(Row, width)
		copy(padded, row)
		for j := len(row); j < width; j++ {
			if i == 0 {
				padded[j] = Text(fmt.Sprintf("Column %d", j+1))
			} else {
				padded[j] = Empty()
			}
		}
		out[i] = padded
	}
	return out
}
