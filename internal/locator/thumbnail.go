package locator

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"os/exec"
	"time"

	"github.com/jmarc580625/medialocate/internal/logging"
	"github.com/jmarc580625/medialocate/internal/mediatypes"
	"github.com/jmarc580625/medialocate/internal/metrics"

	_ "image/gif"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

const (
	thumbnailWidth   = 128
	thumbnailQuality = 80
	thumbnailTimeout = 30 * time.Second
)

// createThumbnail renders a jpeg thumbnail of a media file at thumbPath.
func (m *MediaLocate) createThumbnail(path string, mediaType mediatypes.MediaType, thumbPath string) error {
	var img image.Image
	var err error

	switch mediaType {
	case mediatypes.MediaTypePicture:
		img, err = decodePicture(path)
	case mediatypes.MediaTypeMovie:
		img, err = extractVideoFrame(path)
	default:
		err = fmt.Errorf("unsupported media type: %s", mediaType)
	}
	if err != nil {
		metrics.LocatorThumbnailsTotal.WithLabelValues(mediaType.String(), "error").Inc()
		return err
	}

	thumb := imaging.Resize(img, thumbnailWidth, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: thumbnailQuality}); err != nil {
		metrics.LocatorThumbnailsTotal.WithLabelValues(mediaType.String(), "error").Inc()
		return fmt.Errorf("encoding thumbnail: %w", err)
	}
	if err := os.WriteFile(thumbPath, buf.Bytes(), 0644); err != nil {
		metrics.LocatorThumbnailsTotal.WithLabelValues(mediaType.String(), "error").Inc()
		return fmt.Errorf("writing thumbnail: %w", err)
	}
	metrics.LocatorThumbnailsTotal.WithLabelValues(mediaType.String(), "ok").Inc()
	return nil
}

// decodePicture opens an image file, honoring EXIF orientation, with a
// plain decode fallback for formats imaging cannot open directly.
func decodePicture(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err == nil {
		return img, nil
	}
	logging.Debug("locator: imaging.Open failed for %s: %v, trying plain decode", path, err)

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err = image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return img, nil
}

// extractVideoFrame grabs a single frame from a video with ffmpeg. The
// first attempt seeks one second in; very short clips fall back to the
// first frame.
func extractVideoFrame(path string) (image.Image, error) {
	ctx, cancel := context.WithTimeout(context.Background(), thumbnailTimeout)
	defer cancel()

	stdout, err := runFFmpegFrame(ctx, path, true)
	if err != nil {
		logging.Debug("locator: ffmpeg seek attempt failed for %s: %v", path, err)
		stdout, err = runFFmpegFrame(ctx, path, false)
		if err != nil {
			return nil, err
		}
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no output for %s", path)
	}

	img, _, err := image.Decode(stdout)
	if err != nil {
		return nil, fmt.Errorf("decoding ffmpeg output: %w", err)
	}
	return img, nil
}

func runFFmpegFrame(ctx context.Context, path string, seek bool) (*bytes.Buffer, error) {
	args := []string{"-hide_banner", "-v", "quiet", "-nostdin", "-i", path}
	if seek {
		args = append(args, "-ss", "00:00:01")
	}
	args = append(args,
		"-vframes", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	)
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg failed: %w - %s", err, stderr.String())
	}
	return &stdout, nil
}
