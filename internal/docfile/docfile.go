// Package docfile stores binary documents in files.
package docfile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/MikhailWahib/bjson/internal/derrors"
	"github.com/MikhailWahib/bjson/internal/diskmanager"
	"github.com/MikhailWahib/bjson/internal/document"
	"github.com/MikhailWahib/bjson/internal/log"
	"github.com/MikhailWahib/bjson/internal/record"
)

// Ext is the file extension of stored documents.
const Ext = ".bjsn"

// Write stores the document buf at path, replacing any previous contents.
// buf must open as a document. If writing fails after the file was opened,
// the file is removed.
func Write(ctx context.Context, dm diskmanager.DiskManager, path string, buf []byte) (err error) {
	defer derrors.Wrap(&err, "docfile.Write(%q)", path)

	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := document.Open(buf); err != nil {
		return err
	}
	file, err := dm.Open(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	defer func() {
		cerr := dm.Close(path)
		if err != nil {
			if derr := dm.Delete(path); derr != nil {
				log.Warningf("docfile: removing partial %s: %v", path, derr)
			}
			return
		}
		if cerr != nil {
			err = fmt.Errorf("failed to close file: %w", cerr)
		}
	}()

	if _, err := file.WriteAt(buf, 0); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	if err := file.Truncate(int64(len(buf))); err != nil {
		return fmt.Errorf("failed to truncate file: %w", err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("failed to sync file: %w", err)
	}
	return nil
}

// Read loads the document stored at path.
func Read(ctx context.Context, dm diskmanager.DiskManager, path string) (_ *document.Document, err error) {
	defer derrors.Wrap(&err, "docfile.Read(%q)", path)

	buf, err := readAll(ctx, dm, path)
	if err != nil {
		return nil, err
	}
	if len(buf) < record.HeaderSize {
		return nil, fmt.Errorf("file of %d bytes is too small to be a document: %w", len(buf), derrors.BadMagic)
	}
	return document.Open(buf)
}

// ReadText returns the contents of the text file at path.
func ReadText(ctx context.Context, dm diskmanager.DiskManager, path string) (_ []byte, err error) {
	defer derrors.Wrap(&err, "docfile.ReadText(%q)", path)
	return readAll(ctx, dm, path)
}

func readAll(ctx context.Context, dm diskmanager.DiskManager, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := dm.Open(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer func() { _ = dm.Close(path) }()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	buf := make([]byte, stat.Size())
	n, err := file.ReadAt(buf, 0)
	if err != nil && !(errors.Is(err, io.EOF) && n == len(buf)) {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return buf, nil
}
