package entity

type Content struct {
	Original  Object `json:"original,omitempty"`
	Thumbnail Object `json:"thumbnail,omitempty"`
}

type Object struct {
	ID          string `json:"id,omitempty"`
	URL         string `json:"url,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}
