package scan

import (
	"encoding/base64"
	"errors"
	"strings"
)

// DecodeImage decodes base64 image data. A data URL prefix
// ("data:image/png;base64,") is stripped and its MIME type returned.
func DecodeImage(data string) ([]byte, string, error) {
	var mimeType string
	if rest, ok := strings.CutPrefix(data, "data:"); ok {
		meta, payload, found := strings.Cut(rest, ",")
		if !found {
			return nil, "", errors.New("malformed data URL")
		}
		mimeType, _, _ = strings.Cut(meta, ";")
		data = payload
	}
	image, err := base64.StdEncoding.DecodeString(strings.TrimSpace(data))
	if err != nil {
		return nil, "", err
	}
	return image, mimeType, nil
}
