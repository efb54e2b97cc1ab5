// internal/extract/extractor.go
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	sderr "sigdiff/internal/errors"
)

// Extractor produces the public interface of the source tree at dir.
// Implementations must not modify anything under dir.
type Extractor interface {
	Extract(ctx context.Context, dir string) (*Document, error)
}

// CommandExtractor runs an external extraction engine as a subprocess in
// the working-copy directory. The engine contract: print a JSON array of
// {path, signature} objects on stdout and exit zero. Anything else on a
// non-zero exit is treated as engine diagnostics.
type CommandExtractor struct {
	Command string
	Args    []string
	Logger  *zap.Logger
}

func NewCommandExtractor(command string, args []string, logger *zap.Logger) *CommandExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandExtractor{Command: command, Args: args, Logger: logger}
}

// Identity names the configured engine, for cache keying and logs.
func (e *CommandExtractor) Identity() string {
	if len(e.Args) == 0 {
		return e.Command
	}
	return e.Command + " " + strings.Join(e.Args, " ")
}

func (e *CommandExtractor) Extract(ctx context.Context, dir string) (*Document, error) {
	cmd := exec.CommandContext(ctx, e.Command, e.Args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.Logger.Debug("running extraction engine",
		zap.String("command", e.Identity()),
		zap.String("dir", dir))

	if err := cmd.Run(); err != nil {
		diagnostics := strings.TrimSpace(stderr.String())
		return nil, sderr.ExtractionFailed(diagnostics, fmt.Errorf("%s: %w", e.Command, err))
	}

	doc, err := ParseDocument(stdout.Bytes())
	if err != nil {
		return nil, err
	}

	e.Logger.Debug("extraction complete",
		zap.String("dir", dir),
		zap.Int("symbols", doc.Len()))

	return doc, nil
}

// ParseDocument decodes engine output into a Document. A parse failure
// means the adapter and engine disagree on the format, which is reported
// distinctly from an engine build failure.
func ParseDocument(data []byte) (*Document, error) {
	var symbols []Symbol
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&symbols); err != nil {
		return nil, sderr.ExtractionOutputInvalid(err)
	}

	for i, s := range symbols {
		if s.Path == "" {
			return nil, sderr.ExtractionOutputInvalid(fmt.Errorf("symbol %d has empty path", i))
		}
	}

	return NewDocument(symbols), nil
}

// MarshalDocument is the inverse of ParseDocument, used by the cache.
func MarshalDocument(doc *Document) ([]byte, error) {
	return json.Marshal(doc.Symbols)
}
