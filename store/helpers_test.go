package store_test

import (
	"io"
	"strings"
)

func stringsReader(s string) io.Reader {
	return strings.NewReader(strings.TrimPrefix(s, "\n"))
}
