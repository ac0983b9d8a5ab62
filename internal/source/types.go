package source

import "fmt"

// FileID indexes a file inside the FileSet that loaded it. IDs from two
// different sets are unrelated.
type FileID uint32

// FileFlags records where content came from and what loading changed.
type FileFlags uint8

const (
	// FileVirtual marks content taken from a dump rather than read from disk.
	FileVirtual FileFlags = 1 << iota
	FileHadBOM
	FileNormalizedCRLF
)

// Has reports whether every bit of want is set.
func (f FileFlags) Has(want FileFlags) bool { return f&want == want }

// File is one loaded source. Content is already normalised, LineIdx holds
// the offset of each '\n'.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32
	Hash    [32]byte
	Flags   FileFlags
}

// LineCol is a 1-based position.
type LineCol struct {
	Line uint32
	Col  uint32
}

func (lc LineCol) String() string { return fmt.Sprintf("%d:%d", lc.Line, lc.Col) }
