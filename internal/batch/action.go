package batch

import "fmt"

// Action result code boundaries. An action returns 0 for success, 1..9 for
// "skip this file, it is not an error", and anything above 9 for hard
// failure.
const (
	ResultSuccess    = 0
	ResultIgnore     = 1
	MaxIgnoreResult  = 9
	ResultHardFailed = 10
)

// Action is the capability invoked per candidate file. Implementations
// receive the file path and its status key and return a result code; a
// non-nil error is an abnormal condition that propagates out of Process
// unchanged, leaving the file's record as it was before the call.
type Action interface {
	Invoke(path, key string) (int, error)
}

// ActionFunc adapts a plain function to the Action interface.
type ActionFunc func(path, key string) (int, error)

// Invoke calls f.
func (f ActionFunc) Invoke(path, key string) (int, error) {
	return f(path, key)
}

// NoopAction echoes the candidate to standard output and always succeeds.
// It is the default when a controller is constructed without an action.
type NoopAction struct{}

// Invoke prints the path/key pair and returns success.
func (NoopAction) Invoke(path, key string) (int, error) {
	fmt.Printf("%q %q\n", path, key)
	return ResultSuccess, nil
}
