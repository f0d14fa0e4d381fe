package fileman

import (
	"strings"

	"github.com/sabouaram/codexec/errtax"
)

// maxFilenameLen is the longest filename component this service accepts,
// well under every common filesystem's own limit.
const maxFilenameLen = 255

// reservedWindowsNames blocks device names that are special on Windows
// regardless of extension (CON, CON.txt, ...). Rejecting them keeps a
// single sweep of uploaded names safe on every platform the daemon might
// run on, not just the one it happens to be built for.
var reservedWindowsNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// ValidateFilename rejects anything that isn't a bare, single-component
// filename: path separators, ".." traversal, control characters, reserved
// device names, and anything over maxFilenameLen. This is the only gate
// standing between an untrusted upload name and the filesystem, so it is
// applied before any path is ever joined with a managed root.
func ValidateFilename(name string) error {
	if name == "" {
		return errtax.InvalidArgument.Errorf("empty filename")
	}
	if len(name) > maxFilenameLen {
		return errtax.InvalidArgument.Errorf("filename too long: %d bytes", len(name))
	}
	if strings.ContainsAny(name, "/\\") {
		return errtax.InvalidArgument.Errorf("filename contains a path separator: %q", name)
	}
	if strings.Contains(name, "..") {
		return errtax.InvalidArgument.Errorf("filename contains a traversal sequence: %q", name)
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return errtax.InvalidArgument.Errorf("filename contains a control character: %q", name)
		}
	}
	stem := name
	if i := strings.IndexByte(stem, '.'); i >= 0 {
		stem = stem[:i]
	}
	if reservedWindowsNames[strings.ToUpper(stem)] {
		return errtax.InvalidArgument.Errorf("filename uses a reserved device name: %q", name)
	}
	return nil
}
