package audio

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"

	"github.com/lixenwraith/spotglobe/parameter"
)

// lookPath and statPath are swapped in tests
var (
	lookPath = exec.LookPath
	statPath = func(p string) error { _, err := os.Stat(p); return err }
)

var rateArg = strconv.Itoa(parameter.AudioSampleRate)

// pipePlayer is a CLI player that reads raw s16le stereo from stdin
type pipePlayer struct {
	typ    BackendType
	name   string
	binary string
	args   []string
}

// pipePlayers in preference order
var pipePlayers = []pipePlayer{
	{BackendPulse, "pacat", "pacat", []string{
		"--raw", "--format=s16le", "--rate=" + rateArg, "--channels=2",
		"--latency-msec=" + strconv.Itoa(int(parameter.AudioBufferDuration.Milliseconds())), "--playback",
	}},
	{BackendPipeWire, "pw-cat", "pw-cat", []string{
		"--playback", "--format=s16", "--rate=" + rateArg, "--channels=2",
		fmt.Sprintf("--latency=%dms", parameter.AudioBufferDuration.Milliseconds()), "-",
	}},
	{BackendALSA, "aplay", "aplay", []string{"-t", "raw", "-f", "S16_LE", "-r", rateArg, "-c", "2", "-q"}},
	{BackendSoX, "sox", "play", []string{"-t", "raw", "-e", "signed", "-b", "16", "-c", "2", "-r", rateArg, "-", "-d", "-q"}},
	{BackendFFplay, "ffplay", "ffplay", []string{
		"-nodisp", "-autoexit", "-f", "s16le", "-ac", "2", "-ar", rateArg,
		"-probesize", "32", "-analyzeduration", "0", "-i", "pipe:0", "-loglevel", "quiet",
	}},
}

// ossDevice is written directly on FreeBSD when no player binary exists
const ossDevice = "/dev/dsp"

// DetectBackend returns the first available player, falling back to OSS
func DetectBackend() (*BackendConfig, error) {
	for _, p := range pipePlayers {
		path, err := lookPath(p.binary)
		if err != nil {
			continue
		}
		return &BackendConfig{
			Type: p.typ,
			Name: p.name,
			Path: path,
			Args: append([]string(nil), p.args...),
		}, nil
	}

	if runtime.GOOS == "freebsd" && statPath(ossDevice) == nil {
		return &BackendConfig{Type: BackendOSS, Name: "oss", Path: ossDevice}, nil
	}
	return nil, ErrNoAudioBackend
}
