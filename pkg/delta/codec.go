package delta

import (
	"bytes"
	"os/exec"
	"strings"

	"github.com/nirvanamm/nirvanamm/pkg/errors"
	"github.com/nirvanamm/nirvanamm/pkg/logging"
)

// DefaultBinary is the codec executable looked up on PATH.
const DefaultBinary = "xdelta3"

// Codec decodes a delta patch against a source file, writing target and
// overwriting it if present. Implementations open the paths themselves,
// so callers must close their own handles first.
type Codec interface {
	Decode(source, patch, target string) error
}

// Opener creates a codec for one apply run.
type Opener func() (Codec, error)

// ExecCodec runs an external xdelta3-compatible executable.
type ExecCodec struct {
	path string
}

// NewExecCodec resolves binary on PATH (or as a path).
func NewExecCodec(binary string) (*ExecCodec, error) {
	if binary == "" {
		binary = DefaultBinary
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrCodec, "delta codec %s is not available", binary)
	}
	return &ExecCodec{path: path}, nil
}

// ExecOpener returns an Opener producing ExecCodecs for binary.
func ExecOpener(binary string) Opener {
	return func() (Codec, error) {
		return NewExecCodec(binary)
	}
}

// Path is the resolved executable.
func (c *ExecCodec) Path() string {
	return c.path
}

// Decode runs "<codec> -d -f -s source patch target".
func (c *ExecCodec) Decode(source, patch, target string) error {
	logger := logging.GetLogger("delta")
	done := logging.LogOperationStart(logger, "decode")
	defer done()

	var output bytes.Buffer
	cmd := exec.Command(c.path, "-d", "-f", "-s", source, patch, target)
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		diag := strings.TrimSpace(output.String())
		logger.Error().Err(err).Str("output", diag).Msg("Codec failed")

		msg := "codec failed to decode " + patch
		if diag != "" {
			msg += ": " + diag
		}
		e := errors.Wrap(err, errors.ErrCodec, msg).WithDetail("output", diag)
		if exitErr, ok := err.(*exec.ExitError); ok {
			e = e.WithDetail("status", exitErr.ExitCode())
		}
		return e
	}

	logger.Debug().Str("target", target).Msg("Decoded patch")
	return nil
}
