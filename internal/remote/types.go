package remote

// contentMetadata is the part of the contents API response that carries
// the version token of the stored file.
type contentMetadata struct {
	SHA  string `json:"sha"`
	Path string `json:"path,omitempty"`
	Size int    `json:"size,omitempty"`
}

// putRequest is the body of a create-or-replace write.
type putRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha,omitempty"`
	Branch  string `json:"branch,omitempty"`
}

// putResponse is returned by a successful write.
type putResponse struct {
	Content contentMetadata `json:"content"`
	Commit  struct {
		SHA string `json:"sha"`
	} `json:"commit"`
}

// errorResponse is the error body the contents API sends on failure.
type errorResponse struct {
	Message          string `json:"message"`
	DocumentationURL string `json:"documentation_url,omitempty"`
}
