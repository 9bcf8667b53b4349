package port

import "context"

// ThumbnailArchiver bundles the preview filmstrip into a single archive
// for upload alongside the report.
type ThumbnailArchiver interface {
	Archive(ctx context.Context, filePaths []string, outputPath string) error
}
