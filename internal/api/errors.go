package api

import (
	"net/http"

	apperrors "bida-banking-workers/internal/common/errors"

	"github.com/gin-gonic/gin"
)

func statusFor(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeStateNotInitialized,
		apperrors.ErrCodeBankStateNotFound,
		apperrors.ErrCodeUnknownBankPartner,
		apperrors.ErrCodeResourceNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeKycNotApproved,
		apperrors.ErrCodeAccountNotActive,
		apperrors.ErrCodeNoEscrowFound,
		apperrors.ErrCodeEscrowAlreadyReleased,
		apperrors.ErrCodeBankStoreConflict:
		return http.StatusConflict
	case apperrors.ErrCodeInvalidBankRequest:
		return http.StatusBadRequest
	case apperrors.ErrCodeBankStoreFailed,
		apperrors.ErrCodeOperationTimeout,
		apperrors.ErrCodeDocumentIndexFailed,
		apperrors.ErrCodeExternalService,
		apperrors.ErrCodeDatabaseConnectionFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// abort writes {"error": {"code", "message"}} with the status for err's code.
func (s *Server) abort(c *gin.Context, err error) {
	stdErr := apperrors.Normalize(err)
	status := statusFor(stdErr.Code)

	fields := map[string]interface{}{
		"path":   c.FullPath(),
		"code":   stdErr.Code,
		"status": status,
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", merge(fields, "error", stdErr.Error()))
	} else {
		s.logger.Debug("request rejected", fields)
	}

	body := gin.H{"code": stdErr.Code, "message": stdErr.Message}
	if status == http.StatusBadRequest && stdErr.Details != "" {
		body["details"] = stdErr.Details
	}
	c.AbortWithStatusJSON(status, gin.H{"error": body})
}

func merge(fields map[string]interface{}, key string, value interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out[key] = value
	return out
}
