package models

// ImageAsset is one file read from the images directory.
type ImageAsset struct {
	Filename string
	Content  []byte
}

// UploadedImage pairs an image filename with the content id the storage
// network returned for it.
type UploadedImage struct {
	Filename  string
	ContentID string
}
