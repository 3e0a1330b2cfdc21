package dynamodb

import (
	"errors"

	apperrors "ontology-backend/pkg/errors"

	"github.com/aws/smithy-go"
)

func isConditionFailed(err error) bool {
	var ae smithy.APIError
	return errors.As(err, &ae) && ae.ErrorCode() == "ConditionalCheckFailedException"
}

// mapError converts DynamoDB failures into application errors. Throttling is
// reported as unavailable so callers can retry.
func mapError(operation string, err error) error {
	var ae smithy.APIError
	if !errors.As(err, &ae) {
		return apperrors.NewDatabaseError(operation, err)
	}

	switch ae.ErrorCode() {
	case "ProvisionedThroughputExceededException", "ThrottlingException", "RequestLimitExceeded":
		return apperrors.NewUnavailableError("dynamodb").WithCause(err)
	case "ResourceNotFoundException":
		return apperrors.NewDatabaseError(operation, err).WithDetails(map[string]interface{}{
			"reason": "table not found",
		})
	default:
		return apperrors.NewDatabaseError(operation, err)
	}
}
