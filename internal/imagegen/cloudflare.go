package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kovalyov-valentin/news-digest-bot/internal/ratelimit"
)

var ErrNoImage = errors.New("no image in response")

const cloudflareEndpoint = "https://api.cloudflare.com/client/v4/accounts/%s/ai/run/%s"

// Cloudflare генерирует картинку через Workers AI (stable diffusion)
type Cloudflare struct {
	client   *http.Client
	endpoint string
	token    string
	quota    *ratelimit.Quota
	log      *slog.Logger
}

func NewCloudflare(accountID, token, model string, timeout time.Duration, quota *ratelimit.Quota, log *slog.Logger) *Cloudflare {
	return &Cloudflare{
		client:   &http.Client{Timeout: timeout},
		endpoint: fmt.Sprintf(cloudflareEndpoint, accountID, model),
		token:    token,
		quota:    quota,
		log:      log.With("component", "imagegen"),
	}
}

type generateRequest struct {
	Prompt   string  `json:"prompt"`
	NumSteps int     `json:"num_steps"`
	Guidance float64 `json:"guidance"`
}

type generateResponse struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
}

// Generate возвращает байты картинки. Любой неуспешный ответ - ошибка, картинки нет
func (c *Cloudflare) Generate(ctx context.Context, prompt string) ([]byte, error) {
	if c.quota != nil {
		if err := c.quota.Use(); err != nil {
			return nil, err
		}
	}

	body, err := json.Marshal(generateRequest{Prompt: prompt, NumSteps: 20, Guidance: 7.5})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cloudflare request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read cloudflare response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cloudflare status %d: %s", resp.StatusCode, truncate(string(data), 200))
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "image/") {
		if len(data) == 0 {
			return nil, ErrNoImage
		}
		return data, nil
	}

	return decodeImage(data)
}

// Ответ в json: result - либо {"image": base64}, либо сама base64 строка
func decodeImage(data []byte) ([]byte, error) {
	var resp generateResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode cloudflare response: %w", err)
	}

	if !resp.Success || len(resp.Result) == 0 {
		return nil, ErrNoImage
	}

	var encoded string
	var obj struct {
		Image string `json:"image"`
	}
	switch {
	case json.Unmarshal(resp.Result, &obj) == nil && obj.Image != "":
		encoded = obj.Image
	case json.Unmarshal(resp.Result, &encoded) == nil && encoded != "":
	default:
		return nil, ErrNoImage
	}

	img, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode image base64: %w", err)
	}
	if len(img) == 0 {
		return nil, ErrNoImage
	}

	return img, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
