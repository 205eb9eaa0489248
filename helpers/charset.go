package helpers

import (
	"bufio"
	"fmt"
	"io"

	"golang.org/x/net/html/charset"
)

// ToUTF8 wraps r so that it yields UTF-8, detecting the source encoding from
// contentType (may be empty) and the first kilobyte of the body.
func ToUTF8(r io.Reader, contentType string) (io.Reader, error) {
	br := bufio.NewReader(r)
	peek, err := br.Peek(1024)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("failed to read body prefix: %w", err)
	}

	encoding, name, _ := charset.DetermineEncoding(peek, contentType)
	if name == "utf-8" || name == "UTF-8" {
		return br, nil
	}

	return encoding.NewDecoder().Reader(br), nil
}
