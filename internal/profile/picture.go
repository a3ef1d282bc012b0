package profile

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"io"

	"github.com/ccoveille/go-safecast"
	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/jon4hz/agora/internal/config"
	_ "golang.org/x/image/webp" // register the webp decoder
)

var pictureTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// EncodePicture reads a picture upload, scales it down to the configured bounds
// and returns it as a data URI. Photos are re-encoded as JPEG, everything else as PNG.
func EncodePicture(r io.Reader, cfg config.ProfileConfig) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, cfg.MaxPictureBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read picture: %w", err)
	}
	if int64(len(data)) > cfg.MaxPictureBytes {
		limit, _ := safecast.ToUint64(cfg.MaxPictureBytes)
		return "", fmt.Errorf("picture is larger than %s", humanize.IBytes(limit))
	}
	if len(data) == 0 {
		return "", fmt.Errorf("picture is empty")
	}

	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), pictureTypes...) {
		return "", fmt.Errorf("unsupported picture type %s", mtype.String())
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("failed to decode picture: %w", err)
	}

	bounds := img.Bounds()
	var processed image.Image = img
	if bounds.Dx() > cfg.MaxPictureWidth || bounds.Dy() > cfg.MaxPictureHeight {
		processed = imaging.Fit(img, cfg.MaxPictureWidth, cfg.MaxPictureHeight, imaging.Lanczos)
		log.Debug("Resized picture",
			"from", fmt.Sprintf("%dx%d", bounds.Dx(), bounds.Dy()),
			"to", fmt.Sprintf("%dx%d", processed.Bounds().Dx(), processed.Bounds().Dy()),
		)
	}

	var buf bytes.Buffer
	contentType := "image/png"
	if mtype.Is("image/jpeg") {
		contentType = "image/jpeg"
		err = imaging.Encode(&buf, processed, imaging.JPEG, imaging.JPEGQuality(cfg.JPEGQuality))
	} else {
		err = imaging.Encode(&buf, processed, imaging.PNG)
	}
	if err != nil {
		return "", fmt.Errorf("failed to encode picture: %w", err)
	}

	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
