package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/semmy-space/tasq/internal/api"
	"github.com/semmy-space/tasq/internal/output"
)

// mapError converts library errors into CLIErrors with exit codes and hints.
// Errors that already are CLIErrors pass through.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var cliErr *output.CLIError
	if errors.As(err, &cliErr) {
		return cliErr
	}

	var (
		apiErr     *api.APIError
		netErr     *api.NetworkError
		timeoutErr *api.PollTimeoutError
		failedErr  *api.TaskFailedError
	)

	switch {
	case errors.Is(err, api.ErrCredentialRequired):
		return output.NewCLIError(output.ExitAuth, err.Error()).
			WithHint("Run: tasq key set")
	case errors.As(err, &timeoutErr):
		return output.NewCLIError(output.ExitTimeout, err.Error()).
			WithHint(fmt.Sprintf("Check again later: tasq task get %s", timeoutErr.TaskID))
	case errors.As(err, &failedErr):
		return output.NewCLIError(output.ExitTaskFailed, fmt.Sprintf("Task %s failed: %s", failedErr.TaskID, failedErr.Message))
	case errors.As(err, &netErr):
		return output.NewCLIError(output.ExitNetworkError, err.Error())
	case errors.As(err, &apiErr):
		return apiError(apiErr)
	case errors.Is(err, api.ErrInvalidRequest):
		return output.NewCLIError(output.ExitUsage, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return output.NewCLIError(output.ExitTimeout, "Request timed out")
	case errors.Is(err, context.Canceled):
		return output.NewCLIError(output.ExitGeneral, "Interrupted")
	default:
		return output.NewCLIError(output.ExitGeneral, err.Error())
	}
}

func apiError(err *api.APIError) *output.CLIError {
	switch err.Status {
	case http.StatusUnauthorized:
		return output.NewCLIError(output.ExitAuth, fmt.Sprintf("API key rejected: %s", err.Message)).
			WithHint("Run: tasq key set")
	case http.StatusForbidden:
		return output.NewCLIError(output.ExitForbidden, err.Message)
	case http.StatusNotFound:
		return output.NewCLIError(output.ExitNotFound, err.Message)
	case http.StatusConflict:
		return output.NewCLIError(output.ExitConflict, err.Message)
	case http.StatusTooManyRequests:
		return output.NewCLIError(output.ExitRateLimit, err.Message).
			WithHint("Lower the request rate: tasq config set rate_limit 1")
	default:
		return output.NewCLIError(output.ExitAPIError, err.Message)
	}
}
