package s3store

import (
	"fmt"
	"strings"
)

// DealImageKey builds the canonical object key for one derivative of a
// deal image: images/deal/{deal_id}/{image_id}{suffix}.jpg
func DealImageKey(dealID, imageID int64, suffix string) string {
	return fmt.Sprintf("images/deal/%d/%d%s.jpg", dealID, imageID, suffix)
}

// TestVariantID derives the object id under which the AI-generated
// candidate for an image is stored. Appending five zero digits keeps it
// out of the range of real catalog ids while staying traceable to the
// original by eye.
func TestVariantID(imageID int64) int64 {
	return imageID * 100000
}

// ParseURL splits an object URL into bucket and key. Accepted forms:
// https://bucket.s3.amazonaws.com/key, https://bucket/key, s3://bucket/key.
// Any query string is dropped.
func ParseURL(raw string) (bucket, key string, err error) {
	clean := raw
	if i := strings.IndexByte(clean, '?'); i >= 0 {
		clean = clean[:i]
	}

	var rest string
	switch {
	case strings.HasPrefix(clean, "https://"):
		rest = strings.TrimPrefix(clean, "https://")
	case strings.HasPrefix(clean, "s3://"):
		rest = strings.TrimPrefix(clean, "s3://")
	default:
		return "", "", fmt.Errorf("s3store.ParseURL: unsupported object url %q", raw)
	}

	host, path, ok := strings.Cut(rest, "/")
	if !ok || path == "" {
		return "", "", fmt.Errorf("s3store.ParseURL: no key in object url %q", raw)
	}
	host = strings.TrimSuffix(host, ".s3.amazonaws.com")
	return host, path, nil
}
