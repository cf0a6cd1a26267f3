package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Больше телеграм все равно не примет как фото
const maxImageSize = 10 << 20

type Downloader struct {
	client *http.Client
}

func NewDownloader(timeout time.Duration) *Downloader {
	return &Downloader{client: &http.Client{Timeout: timeout}}
}

// Download скачивает картинку. Ответ не 200 или не image/* считается ошибкой
func (d *Downloader) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download image: status %d", resp.StatusCode)
	}

	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "image") {
		return nil, fmt.Errorf("download image: unexpected content type %q", ct)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(data) > maxImageSize {
		return nil, fmt.Errorf("image is larger than %d bytes", maxImageSize)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image")
	}

	return data, nil
}
