//go:generate go run go.uber.org/mock/mockgen -source=media.go -destination=../../mocks/mock_uploader.go -package=mocks
package media

import (
	"context"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"PingUp/tools/errs"
)

// File is an attachment received with a message.
type File struct {
	Name string
	Data []byte
}

// Asset is the stored copy returned by the media service.
type Asset struct {
	FileID   string
	Name     string
	URL      string
	MimeType string
}

type Uploader interface {
	Upload(ctx context.Context, f File) (*Asset, error)
}

// DetectImage sniffs the content and returns its MIME type when it is an image.
func DetectImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errs.ErrInvalidMedia.WrapMsg("empty file")
	}
	detected := mimetype.Detect(data).String()
	mt, _, err := mime.ParseMediaType(detected)
	if err != nil || !strings.HasPrefix(mt, "image/") {
		return "", errs.ErrInvalidMedia.WrapMsg("file is not an image", "detected", detected)
	}
	return mt, nil
}
