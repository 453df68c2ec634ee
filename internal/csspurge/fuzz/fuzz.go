// +build gofuzz

package fuzz

import (
	"github.com/daaku/cssweld/internal/csspurge"
	"github.com/daaku/cssweld/internal/htmlusage"
)

func Fuzz(b []byte) int {
	_, _, _ = csspurge.Purge(htmlusage.New(), nil, b, nil)
	return 0
}
