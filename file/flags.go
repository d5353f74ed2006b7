package file

// Flags associated with a File. The values mirror the usual open(2)
// flag encoding on linux/amd64.
const (
	// ORdonly means the file is read only.
	ORdonly uint32 = 0o0

	// OWronly means the file is write only.
	OWronly uint32 = 0o1

	// ORdwr means the file can be both read and written.
	ORdwr uint32 = 0o2

	// OAccMode is the bitmask for the access mode flags.
	OAccMode uint32 = 0o3

	// OCreat means the file was created if it didn't already exist.
	OCreat uint32 = 0o100

	// OExcl ensures the file was created by this open.
	OExcl uint32 = 0o200

	// ONoctty means the file should not become the process's
	// controlling terminal.
	ONoctty uint32 = 0o400

	// OTrunc means the file should be truncated to length 0.
	OTrunc uint32 = 0o1000

	// OAppend means the file is opened in append mode.
	OAppend uint32 = 0o2000

	// ONonblock means the file is using nonblocking I/O.
	ONonblock uint32 = 0o4000

	// ODsync means write operations flush data, but not metadata.
	ODsync uint32 = 0o10000

	// OAsync means signal-driven I/O is enabled.
	OAsync uint32 = 0o20000

	// ODirect means direct I/O is enabled for this file.
	ODirect uint32 = 0o40000

	// OLargefile means large file sizes are enabled.
	OLargefile uint32 = 0o100000

	// ODirectory means the file must be a directory.
	ODirectory uint32 = 0o200000

	// ONofollow fails the open if the path's basename is a symlink.
	ONofollow uint32 = 0o400000

	// ONoatime means the last access time is not updated.
	ONoatime uint32 = 0o1000000

	// OCloexec means the close-on-exec flag is set.
	OCloexec uint32 = 0o2000000

	// OSync means write operations flush data and metadata.
	OSync uint32 = 0o4010000

	// OPath means the descriptor is a pure path handle.
	OPath uint32 = 0o10000000

	// OTmpfile means the file is an unnamed temporary regular file.
	OTmpfile uint32 = 0o20000000 | ODirectory
)

// AccMode extracts the access mode bits from flags.
func AccMode(flags uint32) uint32 {
	return flags & OAccMode
}
