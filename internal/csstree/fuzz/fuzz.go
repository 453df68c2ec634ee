// +build gofuzz

package fuzz

import (
	"github.com/daaku/cssweld/internal/csstree"
)

func Fuzz(b []byte) int {
	if sheet, err := csstree.Parse(b, csstree.Lenient); err == nil {
		_ = sheet.Text()
	}
	return 0
}
