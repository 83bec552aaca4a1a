package config

import (
	"fmt"
	"path/filepath"
	"time"
)

// SaveKind selects the naming scheme of a default output path.
type SaveKind string

const (
	SaveImage   SaveKind = "image"
	SaveVideo   SaveKind = "video"
	SaveHistory SaveKind = "csv"
)

// DefaultSavePath returns a timestamped path under the output directory for
// the given kind of artifact. The directory is not created here.
func (c *Config) DefaultSavePath(kind SaveKind, now time.Time) string {
	stamp := now.Format("20060102_150405")

	var name string
	switch kind {
	case SaveImage:
		name = fmt.Sprintf("result_%s.jpg", stamp)
	case SaveVideo:
		name = fmt.Sprintf("video_%s.mp4", stamp)
	case SaveHistory:
		name = fmt.Sprintf("history_%s.csv", stamp)
	default:
		name = fmt.Sprintf("result_%s", stamp)
	}

	return filepath.Join(c.OutputDir, name)
}
