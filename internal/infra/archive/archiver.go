package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/natureobs/natureobs-analysis-service/internal/domain/port"
)

// ThumbnailArchiver bundles the preview filmstrip into one zip file.
type ThumbnailArchiver struct{}

func NewThumbnailArchiver() *ThumbnailArchiver {
	return &ThumbnailArchiver{}
}

func (a *ThumbnailArchiver) Archive(ctx context.Context, filePaths []string, outputPath string) error {
	zipFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer zipFile.Close()

	zw := zip.NewWriter(zipFile)
	defer zw.Close()

	for _, fp := range filePaths {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := addFile(zw, fp); err != nil {
			return fmt.Errorf("add %s to archive: %w", fp, err)
		}
	}

	return nil
}

var _ port.ThumbnailArchiver = (*ThumbnailArchiver)(nil)

func addFile(zw *zip.Writer, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}

	header.Name = filepath.Base(filename)
	header.Method = zip.Deflate

	writer, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}

	_, err = io.Copy(writer, file)
	return err
}
