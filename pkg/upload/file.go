package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/grovetools/nig-upload/errors"
	"github.com/grovetools/nig-upload/pkg/api"
	"github.com/grovetools/nig-upload/pkg/profiling"
)

// UploadFile streams one file into a dataset in chunks.
//
// The server binds an upload to the address it started from: after a network
// failure the public IP is checked again and the upload stops if it moved.
// Otherwise the same chunk is sent again, up to ChunkRetries times.
func (u *Uploader) UploadFile(ctx context.Context, datasetUUID, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInvalidInput, "failed to open file").WithDetail("path", path)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInvalidInput, "failed to stat file").WithDetail("path", path)
	}

	name := filepath.Base(path)
	defer profiling.Start("file %s", name).Stop()

	size := stat.Size()
	info := api.FileInfo{
		Name:         name,
		MimeType:     MimeType(name),
		Size:         size,
		LastModified: stat.ModTime().Unix(),
	}
	if err := u.client.InitUpload(ctx, datasetUUID, info); err != nil {
		return err
	}
	u.logger.Success("Upload successfully initialized").Field("file", name).Log(ctx)

	chunkSize := u.opts.ChunkSizeMB
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSizeMB
	}
	buf := make([]byte, chunkSize*1024*1024)

	start := time.Now()
	u.progress.Start(name, size)

	var (
		offset int64
		done   bool
	)
	for !done {
		n, readErr := io.ReadFull(f, buf)
		if readErr != nil && readErr != io.ErrUnexpectedEOF && readErr != io.EOF {
			u.progress.Done()
			return errors.Wrap(readErr, errors.ErrCodeUpload, "failed to read file").WithDetail("path", path)
		}
		if n == 0 {
			break
		}

		contentRange := fmt.Sprintf("bytes %d-%d/%d", offset, offset+int64(n), size)
		done, err = u.sendChunk(ctx, datasetUUID, name, contentRange, buf[:n])
		if err != nil {
			u.progress.Done()
			return err
		}

		offset += int64(n)
		u.progress.Add(int64(n))
	}
	u.progress.Done()

	seconds := int(time.Since(start).Seconds())
	if seconds < 1 {
		seconds = 1
	}
	elapsed := FormatDuration(seconds)
	speed := FormatSpeed(float64(size) / float64(seconds))

	if !done {
		return errors.New(errors.ErrCodeUpload, fmt.Sprintf("Upload Failed in %s (%s)", elapsed, speed)).
			WithDetail("file", name)
	}

	u.logger.Success("Upload successfully completed in %s (%s)", elapsed, speed).
		Field("file", name).
		Field("size", size).
		Field("seconds", seconds).
		Log(ctx)
	return nil
}

// sendChunk sends one chunk, retrying network failures while the public IP
// stays the same.
func (u *Uploader) sendChunk(ctx context.Context, datasetUUID, name, contentRange string, data []byte) (bool, error) {
	for retry := 0; ; retry++ {
		done, err := u.client.UploadChunk(ctx, datasetUUID, name, contentRange, data)
		if err == nil {
			return done, nil
		}
		if !errors.Is(err, errors.ErrCodeNetwork) || ctx.Err() != nil {
			return false, err
		}

		ip, ipErr := u.client.PublicIP(ctx, u.opts.IPServiceURL)
		if ipErr != nil {
			return false, ipErr
		}
		if u.opts.PublicIP == "" {
			u.opts.PublicIP = ip
		}
		if ip != u.opts.PublicIP {
			return false, errors.IPChanged(u.opts.PublicIP, ip, err)
		}

		if retry >= u.opts.ChunkRetries {
			return false, errors.Wrap(err, errors.ErrCodeUpload, "Upload Failed").
				WithDetail("file", name).
				WithDetail("range", contentRange)
		}
		u.logger.Error("Upload Failed, retrying (%v)", err).
			Err(err).
			Field("file", name).
			Field("range", contentRange).
			Field("retry", retry+1).
			Log(ctx)
	}
}
