// +build gofuzz

package fuzz

import (
	"github.com/daaku/cssweld/internal/cssmerge"
)

func Fuzz(b []byte) int {
	_, _ = cssmerge.Merge([]cssmerge.Input{{Name: "fuzz.css", Text: b}}, &cssmerge.Options{CombineMedia: true})
	return 0
}
