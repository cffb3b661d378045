package tools

import "github.com/golang/glog"

var isEnabled = true

func EnableLogger() {
	isEnabled = true
}

func DisableLogger() {
	isEnabled = false
}

// LogOutput routes progress messages through glog.Infoln, gated by the
// --silent flag (isEnabled), matching pkg/tiler_index.go's convention of
// going through glog for everything but fatal diagnostics.
func LogOutput(val ...interface{}) {
	if isEnabled {
		glog.Infoln(val...)
	}
}
