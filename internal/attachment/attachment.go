package attachment

import "time"

type Attachment struct {
	Reference   string    `json:"reference"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	UploadedBy  int64     `json:"uploaded_by"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// allowedTypes maps sniffed content types to the extension stored on disk.
var allowedTypes = map[string]string{
	"application/pdf": ".pdf",
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
}

const DefaultMaxSizeBytes int64 = 10 << 20
