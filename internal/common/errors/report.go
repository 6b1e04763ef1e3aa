// internal/common/errors/report.go
package errors

import "time"

// Logger is the part of the kiosk logger a Reporter writes to.
type Logger interface {
	Error(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	if err == nil {
		return nil
	}
	if stdErr, ok := As(err); ok {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// Fields returns the structured log fields for err.
func Fields(err error) map[string]interface{} {
	stdErr := Normalize(err)
	if stdErr == nil {
		return nil
	}
	fields := map[string]interface{}{
		"errorCode":     string(stdErr.Code),
		"errorCategory": GetErrorCategory(stdErr.Code),
		"message":       stdErr.Message,
		"retryable":     stdErr.Retryable,
	}
	if stdErr.Details != "" {
		fields["details"] = stdErr.Details
	}
	for k, v := range stdErr.Metadata {
		fields["meta."+k] = v
	}
	return fields
}

// Reporter logs failures with standardized fields.
type Reporter struct {
	logger Logger
}

func NewReporter(logger Logger) *Reporter {
	return &Reporter{logger: logger}
}

// Report logs err under msg. Retryable failures are warnings; the rest are
// errors. extra is merged over the error fields.
func (r *Reporter) Report(msg string, err error, extra map[string]interface{}) *StandardError {
	stdErr := Normalize(err)
	if stdErr == nil {
		return nil
	}
	fields := Fields(stdErr)
	for k, v := range extra {
		fields[k] = v
	}
	if stdErr.Retryable {
		r.logger.Warn(msg, fields)
	} else {
		r.logger.Error(msg, fields)
	}
	return stdErr
}
