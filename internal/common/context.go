package common

import "context"

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRequestID contextKey = "request_id"
	ContextKeyStudyID   contextKey = "study_id"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID from context
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// WithStudyID adds a study ID to the context
func WithStudyID(ctx context.Context, studyID string) context.Context {
	return context.WithValue(ctx, ContextKeyStudyID, studyID)
}

// StudyIDFromContext extracts the study ID from context
func StudyIDFromContext(ctx context.Context) string {
	if studyID, ok := ctx.Value(ContextKeyStudyID).(string); ok {
		return studyID
	}
	return ""
}
