package media

import (
	"bytes"
	"context"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"PingUp/logger"
	"PingUp/tools/errs"
)

const DefaultUploadURL = "https://upload.imagekit.io/api/v1/files/upload"

type ImageKitConfig struct {
	PrivateKey string
	UploadURL  string
	Folder     string
	// Transform is appended as the tr query parameter, e.g. q-auto,f-webp,w-1280.
	Transform string
	Timeout   time.Duration
}

type ImageKit struct {
	cfg ImageKitConfig
	rc  *resty.Client
	log *zap.Logger
}

type uploadResponse struct {
	FileID   string `json:"fileId"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	FilePath string `json:"filePath"`
}

type apiError struct {
	Message string `json:"message"`
	Help    string `json:"help"`
}

func NewImageKit(cfg ImageKitConfig) *ImageKit {
	if cfg.UploadURL == "" {
		cfg.UploadURL = DefaultUploadURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	rc := resty.New().
		SetTimeout(cfg.Timeout).
		SetBasicAuth(cfg.PrivateKey, "").
		SetRetryCount(2).
		SetRetryWaitTime(300 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		})
	return &ImageKit{cfg: cfg, rc: rc, log: logger.Named("imagekit")}
}

func (k *ImageKit) Upload(ctx context.Context, f File) (*Asset, error) {
	mt, err := DetectImage(f.Data)
	if err != nil {
		return nil, err
	}
	name := f.Name
	if name == "" {
		name = "upload"
	}

	var out uploadResponse
	var apiErr apiError
	resp, err := k.rc.R().
		SetContext(ctx).
		SetFileReader("file", name, bytes.NewReader(f.Data)).
		SetFormData(map[string]string{
			"fileName":          name,
			"folder":            k.cfg.Folder,
			"useUniqueFileName": "true",
		}).
		SetResult(&out).
		SetError(&apiErr).
		Post(k.cfg.UploadURL)
	if err != nil {
		return nil, errs.ErrUpstream.WrapMsg("media upload failed", "err", err)
	}
	if resp.IsError() {
		k.log.Warn("upload rejected", zap.Int("status", resp.StatusCode()), zap.String("message", apiErr.Message))
		return nil, errs.ErrUpstream.WrapMsg("media upload rejected", "status", resp.StatusCode(), "message", apiErr.Message)
	}
	if out.URL == "" {
		return nil, errs.ErrUpstream.WrapMsg("media upload returned no url")
	}

	u, err := TransformURL(out.URL, k.cfg.Transform)
	if err != nil {
		return nil, errs.ErrUpstream.WrapMsg("media url invalid", "url", out.URL)
	}
	k.log.Debug("uploaded", zap.String("file_id", out.FileID), zap.String("path", out.FilePath))
	return &Asset{FileID: out.FileID, Name: out.Name, URL: u, MimeType: mt}, nil
}

// TransformURL appends the ImageKit transformation to a delivery URL.
func TransformURL(raw, tr string) (string, error) {
	if tr == "" {
		return raw, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("tr", tr)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
