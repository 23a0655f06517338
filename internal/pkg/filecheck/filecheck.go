// Package filecheck validates uploaded evidence by its content, not its
// declared type. A renamed executable with a spoofed MIME type fails the
// magic-number check regardless of extension or Content-Type header.
package filecheck

import (
	"bytes"
	"errors"
)

var ErrInvalidFileType = errors.New("invalid file type")

// Accepted evidence MIME types.
const (
	MimeJPEG = "image/jpeg"
	MimePNG  = "image/png"
	MimeGIF  = "image/gif"
	MimePDF  = "application/pdf"
)

// magicNumbers maps each accepted MIME type to its leading bytes.
var magicNumbers = map[string][]byte{
	MimeJPEG: {0xFF, 0xD8, 0xFF},
	MimePNG:  {0x89, 0x50, 0x4E, 0x47},
	MimeGIF:  {0x47, 0x49, 0x46},
	MimePDF:  {0x25, 0x50, 0x44, 0x46},
}

// Sniff returns the MIME type matching the buffer's magic number, or
// ErrInvalidFileType when the content matches none of the accepted types.
func Sniff(buf []byte) (string, error) {
	for mime, magic := range magicNumbers {
		if bytes.HasPrefix(buf, magic) {
			return mime, nil
		}
	}
	return "", ErrInvalidFileType
}

// Verify checks that the buffer's sniffed type matches the declared MIME
// type. Both must agree: a declared image/png with JPEG bytes is rejected.
func Verify(buf []byte, declared string) error {
	sniffed, err := Sniff(buf)
	if err != nil {
		return err
	}
	if sniffed != declared {
		return ErrInvalidFileType
	}
	return nil
}
