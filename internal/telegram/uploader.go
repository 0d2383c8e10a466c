package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/gotd/td/tg"
	"golang.org/x/sync/errgroup"

	"github.com/pavelc4/aether-dl-bot/pkg/buffer"
)

const (
	partSize         = buffer.DefaultSize
	bigFileThreshold = 10 * 1024 * 1024
	uploadThreads    = 4
)

// PartSaver is the slice of the Telegram API the uploader needs.
type PartSaver interface {
	UploadSaveFilePart(ctx context.Context, request *tg.UploadSaveFilePartRequest) (bool, error)
	UploadSaveBigFilePart(ctx context.Context, request *tg.UploadSaveBigFilePartRequest) (bool, error)
}

type Uploader struct {
	api     PartSaver
	threads int
}

func NewUploader(api PartSaver) *Uploader {
	return &Uploader{api: api, threads: uploadThreads}
}

// UploadFile sends a local file in parts and returns the handle to attach to
// a message. Files over 10 MB go through the big-file API.
func (u *Uploader) UploadFile(ctx context.Context, path string) (tg.InputFileClass, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	size := info.Size()
	if size == 0 {
		return nil, fmt.Errorf("refusing to upload empty file %s", path)
	}

	totalParts := int((size + partSize - 1) / partSize)
	isBig := size > bigFileThreshold
	fileID := rand.Int64()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.threads)
	for part := 0; part < totalParts; part++ {
		g.Go(func() error {
			buf := buffer.Get()
			defer buffer.Put(buf)
			n, err := f.ReadAt(buf, int64(part)*partSize)
			if err != nil && !errors.Is(err, io.EOF) {
				return fmt.Errorf("read part %d: %w", part, err)
			}
			return u.uploadPart(gctx, fileID, part, totalParts, buf[:n], isBig)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	name := filepath.Base(path)
	if isBig {
		return &tg.InputFileBig{ID: fileID, Parts: totalParts, Name: name}, nil
	}
	return &tg.InputFile{ID: fileID, Parts: totalParts, Name: name}, nil
}

func (u *Uploader) uploadPart(ctx context.Context, fileID int64, part, totalParts int, data []byte, isBig bool) error {
	var (
		ok  bool
		err error
	)
	if isBig {
		ok, err = u.api.UploadSaveBigFilePart(ctx, &tg.UploadSaveBigFilePartRequest{
			FileID:         fileID,
			FilePart:       part,
			FileTotalParts: totalParts,
			Bytes:          data,
		})
		if err != nil {
			return fmt.Errorf("upload big part %d failed: %w", part, err)
		}
	} else {
		ok, err = u.api.UploadSaveFilePart(ctx, &tg.UploadSaveFilePartRequest{
			FileID:   fileID,
			FilePart: part,
			Bytes:    data,
		})
		if err != nil {
			return fmt.Errorf("upload small part %d failed: %w", part, err)
		}
	}

	if !ok {
		return fmt.Errorf("upload part %d rejected", part)
	}
	return nil
}
