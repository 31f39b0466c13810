package nova

import (
	"net/http"

	"github.com/Laisky/errors/v2"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// StatusCode maps a Bedrock invocation error to the HTTP status a relay
// should surface. Unrecognized errors map to 502, treating the upstream as
// a failed gateway hop.
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var (
		throttling   *types.ThrottlingException
		validation   *types.ValidationException
		accessDenied *types.AccessDeniedException
		notFound     *types.ResourceNotFoundException
		notReady     *types.ModelNotReadyException
		timeout      *types.ModelTimeoutException
		quota        *types.ServiceQuotaExceededException
	)
	switch {
	case errors.As(err, &throttling), errors.As(err, &quota):
		return http.StatusTooManyRequests
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &accessDenied):
		return http.StatusForbidden
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &notReady):
		return http.StatusServiceUnavailable
	case errors.As(err, &timeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}
