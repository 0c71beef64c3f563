package kmd

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorName(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "success"},
		{ErrFileNotFound, "file-not-found"},
		{ErrInvalidExtension, "invalid-extension"},
		{ErrUnauthorizedRead, "unauthorized-read"},
		{ErrFileLocked, "file-locked"},
		{ErrFileEmpty, "file-empty"},
		{ErrUnsupportedFileSize, "unsupported-file-size"},
		{ErrInvalidMagic, "invalid-magic"},
		{ErrInvalidVersion, "invalid-version"},
		{ErrInvalidModelCount, "invalid-model-count"},
		{ErrInvalidModelPosition, "invalid-model-position"},
		{ErrInvalidModelSize, "invalid-model-size"},
		{ErrInvalidTableSize, "invalid-model-table-size"},
		{ErrInvalidBlockSize, "invalid-model-block-size"},
		{ErrUnexpectedEOF, "unexpected-eof"},
		{ErrUnknownRead, "unknown-read-error"},
		// Wrapped errors keep their name.
		{fmt.Errorf("%w: block %q", ErrInvalidModelPosition, "chair"), "invalid-model-position"},
		// Foreign errors report as the generic read failure.
		{errors.New("out of cheese"), "unknown-read-error"},
	}
	for _, tt := range tests {
		if got := ErrorName(tt.err); got != tt.want {
			t.Errorf("ErrorName(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
