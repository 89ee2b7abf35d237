package backend

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"femstat/internal/errors"
	"femstat/models"
)

// DownloadAll fetches the three analysis exports concurrently into dir.
// Any single failure aborts the whole batch; partially written files from
// the failed run are left for the OS to clean (dir is expected to be a
// temp or downloads directory).
func (c *Client) DownloadAll(ctx context.Context, urls models.FileUrls, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.DownloadFailed("could not create download directory", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, fileURL := range []string{urls.CSVWideURL, urls.CSVLongURL, urls.JSONURL} {
		if fileURL == "" {
			continue
		}
		g.Go(func() error {
			return c.downloadTo(ctx, fileURL, dir)
		})
	}
	return g.Wait()
}

func (c *Client) downloadTo(ctx context.Context, fileURL, dir string) error {
	body, name, _, err := c.Download(ctx, fileURL)
	if err != nil {
		return err
	}
	defer body.Close()

	f, err := os.Create(filepath.Join(dir, filepath.Base(name)))
	if err != nil {
		return errors.DownloadFailed("could not create local file", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, body); err != nil {
		return errors.DownloadFailed("could not write local file", err)
	}
	return nil
}
