package port

import "context"

// FailureNotifier tells the uploader their video could not be analyzed.
// Only fired on permanent failure, after retries are exhausted.
type FailureNotifier interface {
	NotifyFailure(ctx context.Context, userEmail string, jobID string, videoKey string, errorMsg string) error
}
