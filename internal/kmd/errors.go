package kmd

import "errors"

// Sentinel errors for every import outcome. Import and ImportBytes return
// exactly one of these, possibly wrapped with context; check with
// errors.Is(). The set is closed: no other error crosses the package
// boundary.
var (
	// ErrFileNotFound indicates the file does not exist.
	ErrFileNotFound = errors.New("kmd: file not found")

	// ErrInvalidExtension indicates the path is not a regular .kmd file.
	ErrInvalidExtension = errors.New("kmd: not a .kmd file")

	// ErrUnauthorizedRead indicates the file has no read permission.
	ErrUnauthorizedRead = errors.New("kmd: read permission denied")

	// ErrFileLocked indicates the file is in use by another process.
	ErrFileLocked = errors.New("kmd: file is locked")

	// ErrUnknownRead indicates an unclassified read failure. Internal
	// panics during decode are also mapped here.
	ErrUnknownRead = errors.New("kmd: unknown read error")

	// ErrFileEmpty indicates a zero-byte file.
	ErrFileEmpty = errors.New("kmd: file is empty")

	// ErrUnsupportedFileSize indicates the total size is outside the
	// [MinFileSize, MaxFileSize] envelope.
	ErrUnsupportedFileSize = errors.New("kmd: unsupported total file size")

	// ErrInvalidMagic indicates the first four bytes are not 'KMD\0'.
	ErrInvalidMagic = errors.New("kmd: invalid magic word")

	// ErrInvalidVersion indicates an unsupported container version.
	ErrInvalidVersion = errors.New("kmd: invalid version")

	// ErrInvalidModelCount indicates the header model count is over
	// MaxModelCount.
	ErrInvalidModelCount = errors.New("kmd: invalid model count")

	// ErrInvalidModelPosition indicates a block position axis outside
	// [MinPosition, MaxPosition].
	ErrInvalidModelPosition = errors.New("kmd: invalid model position")

	// ErrInvalidModelSize indicates a block scale axis outside
	// [MinScale, MaxScale].
	ErrInvalidModelSize = errors.New("kmd: invalid model size")

	// ErrInvalidTableSize indicates the declared table region size is
	// outside [TableEntrySize, MaxTableRegionSize].
	ErrInvalidTableSize = errors.New("kmd: invalid model table size")

	// ErrInvalidBlockSize indicates the declared block region size is
	// outside [VertexDataOffset, MaxBlockRegionSize].
	ErrInvalidBlockSize = errors.New("kmd: invalid model block size")

	// ErrUnexpectedEOF indicates the file ended before a declared
	// structure could be fully read.
	ErrUnexpectedEOF = errors.New("kmd: unexpected end of file")
)

// errorNames pairs each sentinel with its stable outcome name.
var errorNames = []struct {
	err  error
	name string
}{
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
}

// ErrorName returns the stable outcome name for an import error, or
// "success" for nil. Unrecognized errors report as unknown-read-error.
func ErrorName(err error) string {
	if err == nil {
		return "success"
	}
	for _, e := range errorNames {
		if errors.Is(err, e.err) {
			return e.name
		}
	}
	return "unknown-read-error"
}
