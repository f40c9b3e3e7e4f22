package models

// Attachment kinds accepted for upload.
const (
	AttachmentPhoto = "photo"
	AttachmentAudio = "audio"
)

// UploadTicket instructs the client to upload an attachment using a
// presigned URL. Key is the opaque reference later stored on a message or
// SOS alert. Headers were signed into the URL and must be sent with the PUT.
type UploadTicket struct {
	Key     string            `json:"key"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}
