package postcard

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

const maxKindLength = 32

// stampClock hands out strictly increasing microsecond timestamps so two
// renders in the same microsecond still get distinct names.
type stampClock struct {
	last atomic.Int64
	now  func() time.Time
}

func newStampClock(now func() time.Time) *stampClock {
	if now == nil {
		now = time.Now
	}
	return &stampClock{now: now}
}

func (c *stampClock) next() time.Time {
	for {
		t := c.now()
		us := t.UnixMicro()
		last := c.last.Load()
		if us <= last {
			us = last + 1
		}
		if c.last.CompareAndSwap(last, us) {
			return time.UnixMicro(us).In(t.Location())
		}
	}
}

// FormatStamp renders YYYYMMDD_HHMMSS_ffffff
func FormatStamp(t time.Time) string {
	return fmt.Sprintf("%s_%06d", t.Format("20060102_150405"), t.Nanosecond()/1000)
}

// SanitizeKind keeps simulation tags safe for use in a file name
func SanitizeKind(kind string) string {
	kind = strings.ToLower(strings.TrimSpace(kind))
	var b strings.Builder
	for _, r := range kind {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
		if b.Len() >= maxKindLength {
			break
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "unknown"
	}
	return out
}

// ArtifactName builds {prefix}_{kind}_{stamp}.{ext}
func ArtifactName(prefix, kind string, t time.Time, ext string) string {
	return fmt.Sprintf("%s_%s_%s.%s", prefix, SanitizeKind(kind), FormatStamp(t), ext)
}
