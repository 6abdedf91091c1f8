package models

// Profile is what the user directory knows about an identity. Only the
// fields conversation summaries need are carried here.
type Profile struct {
	ID        string `json:"id"`
	FullName  string `json:"fullname"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}
