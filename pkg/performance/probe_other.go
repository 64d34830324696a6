//go:build !(linux || darwin || windows || freebsd)

package performance

func newPlatformProbe() (Probe, error) {
	return NewRuntimeProbe(), nil
}
