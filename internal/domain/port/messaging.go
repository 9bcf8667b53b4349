package port

import "context"

// StatusPublisher pushes job lifecycle updates to the status queue so
// upstream services can follow analysis progress.
type StatusPublisher interface {
	PublishStatus(ctx context.Context, msg []byte) error
}

// DLQPublisher parks messages that can never be analyzed successfully.
type DLQPublisher interface {
	PublishToDLQ(ctx context.Context, msg []byte, reason string) error
}
