package llm

import (
	"context"
	"errors"
	"fmt"
)

// Client is the text-understanding oracle. Every call site requests JSON
// output and must treat failure (including malformed JSON downstream) as
// recoverable: stage-local fallback, never fatal to the run.
type Client interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// OracleError wraps any transport, timeout, or provider failure from an
// oracle call. Callers detect it with errors.As / IsOracle and fall back to
// empty results.
type OracleError struct {
	Provider string
	Err      error
}

func (e *OracleError) Error() string {
	return fmt.Sprintf("oracle %s: %v", e.Provider, e.Err)
}

func (e *OracleError) Unwrap() error { return e.Err }

// IsOracle reports whether err originated from an oracle call.
func IsOracle(err error) bool {
	var oe *OracleError
	return errors.As(err, &oe)
}

func oracleErr(provider string, err error) error {
	return &OracleError{Provider: provider, Err: err}
}

var errNoContent = errors.New("empty response from provider")
