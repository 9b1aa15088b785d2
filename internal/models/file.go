package models

// StoredFile describes a payment proof once it has left the temp directory.
type StoredFile struct {
	URL         string `json:"url"`
	PublicID    string `json:"publicId"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}
