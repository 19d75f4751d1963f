package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"

	"github.com/elee1766/nl2sql/src/azclient"
	"github.com/elee1766/nl2sql/src/catalog"
	"github.com/elee1766/nl2sql/src/config"
	"github.com/elee1766/nl2sql/src/database"
)

// Exit codes following standard conventions
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error
	ExitUsage       = 2 // Usage error
	ExitConfig      = 3 // Configuration error
	ExitAuth        = 4 // Authentication error
	ExitNetwork     = 6 // Network error
	ExitTimeout     = 7 // Timeout error
	ExitInterrupted = 8 // Interrupted by user
)

// ErrorHandler handles different types of errors and exits with appropriate codes
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleError handles an error and exits with the appropriate code
func (h *ErrorHandler) HandleError(err error) {
	if err == nil {
		return
	}

	h.logger.Error("Command failed", "error", err)

	fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
	if hint := errorHint(err); hint != "" {
		fmt.Fprintln(os.Stderr, hint)
	}
	os.Exit(exitCode(err))
}

// errorHint suggests what to do about a completion service failure.
func errorHint(err error) string {
	var apiErr *azclient.APIError
	if !errors.As(err, &apiErr) {
		return ""
	}
	switch {
	case apiErr.IsContentFilter():
		return "The request was blocked by the deployment's content filter; rephrase the question."
	case apiErr.IsRateLimit():
		return "The deployment is rate limited; wait a moment before asking again."
	case apiErr.IsRetryable():
		return "The completion service failed temporarily; the same question may succeed if asked again."
	default:
		return ""
	}
}

// exitCode determines the appropriate exit code for an error
func exitCode(err error) int {
	var (
		cfgErr  *config.Error
		apiErr  *azclient.APIError
		credErr *azclient.CredentialError
		netErr  net.Error
	)

	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &cfgErr),
		errors.Is(err, database.ErrUnsupportedDriver),
		errors.Is(err, catalog.ErrUnknownDialect),
		errors.Is(err, azclient.ErrMissingEndpoint),
		errors.Is(err, azclient.ErrMissingDeployment):
		return ExitConfig
	case errors.As(err, &credErr):
		return ExitAuth
	case errors.As(err, &apiErr) && apiErr.IsAuthError():
		return ExitAuth
	case errors.Is(err, context.DeadlineExceeded):
		return ExitTimeout
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.As(err, &netErr):
		return ExitNetwork
	default:
		return ExitError
	}
}

// FatalError logs a fatal error and exits
func FatalError(logger *slog.Logger, err error) {
	NewErrorHandler(logger).HandleError(err)
}
