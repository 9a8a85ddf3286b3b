package errors

// ExitCode returns the first exit code found in the chain of "err".
//
// Returns 0 for a nil error and 1 if no code was attached.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var coded interface{ ExitCode() int }
	if As(err, &coded) && coded.ExitCode() > 0 {
		return coded.ExitCode()
	}
	return 1
}
