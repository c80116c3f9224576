package models

// ResolvedImage is the outcome of resolving one image reference.
// A broken image is data, not an error: Failed images carry a reason and
// render as placeholders instead of aborting the report.
type ResolvedImage struct {
	URL         string `json:"url"`
	Data        []byte `json:"-"`
	ContentType string `json:"contentType,omitempty"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
	Failed      bool   `json:"failed"`
	FailReason  string `json:"failReason,omitempty"`
}

// ResolvedOK builds a successfully resolved image.
func ResolvedOK(url string, data []byte, contentType string, w, h int) ResolvedImage {
	return ResolvedImage{
		URL:         url,
		Data:        data,
		ContentType: contentType,
		Width:       w,
		Height:      h,
	}
}

// ResolvedFailed builds a failure-marked image.
func ResolvedFailed(url, reason string) ResolvedImage {
	return ResolvedImage{URL: url, Failed: true, FailReason: reason}
}
