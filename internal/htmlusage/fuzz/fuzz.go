// +build gofuzz

package fuzz

import (
	"github.com/daaku/cssweld/internal/htmlusage"
)

func Fuzz(b []byte) int {
	_ = htmlusage.Extract(b)
	return 0
}
