package platform

// Handle and identifier types of the platform ABI. None of them refer to a
// real kernel object on this target.
type (
	ThreadID       uint32
	Thread         uint32
	FileHandle     int32
	RawFileHandle  int32
	PollFileHandle int32
	DirStream      uint32
	NFDs           uint32
)

// Timespec mirrors the C struct timespec.
type Timespec struct {
	Sec  int64
	Nsec int64
}

// PageSize is the granularity of page mappings.
const PageSize = 4096

// InvalidHandle returns the file handle value that never refers to a file.
func InvalidHandle() FileHandle { return -1 }

// GetPageSize returns PageSize.
func GetPageSize() int { return PageSize }
