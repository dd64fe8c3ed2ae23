package handlers

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/veletrh/pattern-kiosk/internal/config"
	"github.com/veletrh/pattern-kiosk/internal/postcard"
)

// ErrInvalidPayload is returned when the image field is not valid base64
var ErrInvalidPayload = errors.New("invalid image payload")

// Titles used when a snapshot arrives without one
const (
	defaultTitleCS    = "Turingovy vzory"
	defaultTitleOther = "Pattern"
)

// decodeImagePayload accepts a data URI or bare base64, padded or not
func decodeImagePayload(data string) ([]byte, error) {
	clean := sanitizeBase64Payload(data)
	if clean == "" {
		return nil, postcard.ErrNoImage
	}

	if decoded, err := base64.StdEncoding.DecodeString(clean); err == nil {
		return decoded, nil
	}
	decoded, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(clean, "="))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return decoded, nil
}

func sanitizeBase64Payload(data string) string {
	trimmed := strings.TrimSpace(data)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "data:") {
		idx := strings.Index(trimmed, ",")
		if idx < 0 {
			return ""
		}
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.ReplaceAll(trimmed, "\n", "")
	trimmed = strings.ReplaceAll(trimmed, "\r", "")
	trimmed = strings.ReplaceAll(trimmed, " ", "")
	return trimmed
}

// normalizeLang lowercases lang and falls back for unsupported values
func normalizeLang(lang, fallback string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if config.IsSupportedLang(lang) {
		return lang
	}
	return fallback
}

// DefaultTitle is the postcard title used when a snapshot has none
func DefaultTitle(lang string) string {
	if lang == config.LangCS {
		return defaultTitleCS
	}
	return defaultTitleOther
}
