// Package test contains helper functions usefull for testing bzzt packages.
package test

import (
	"path/filepath"
)

// All test assets should be listed here so they could be accessible in all test packages.
var (
	testdata = "../_testdata/"
	out      = "out/"

	// Generator scripts.
	Generators = struct {
		Dir         string
		Sine        string
		Passthrough string
		Broken      string
	}{
		Dir:         resolvePath(testdata + "generators"),
		Sine:        resolvePath(testdata + "generators/sine.go"),
		Passthrough: resolvePath(testdata + "generators/passthrough.go"),
		Broken:      resolvePath(testdata + "generators/broken.go"),
	}

	// Pipeline configuration files.
	Config = struct {
		Sine     string
		Stereo   string
		NoOutput string
	}{
		Sine:     resolvePath(testdata + "sine.conf"),     // Sine is a single script sine routed to the left channel.
		Stereo:   resolvePath(testdata + "stereo.conf"),   // Stereo uses built-in generators on both channels.
		NoOutput: resolvePath(testdata + "nooutput.conf"), // NoOutput lacks the output section.
	}

	// List of all outputs to avoid collision.
	Out = struct {
		Wav    string
		Mp3    string
		Bounce string
	}{
		Wav:    resolvePath(testdata + out + "sine.wav"),
		Mp3:    resolvePath(testdata + out + "sine.mp3"),
		Bounce: resolvePath(testdata + out + "bounce.wav"),
	}
)

func resolvePath(path string) string {
	result, _ := filepath.Abs(path)
	return result
}
