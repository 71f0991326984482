// Package upload declares the port the token URI pipeline uses to push
// images and metadata to content-addressed storage. Implementations live in
// the pinata and filebase sub-packages.
package upload

import (
	"context"

	"github.com/dmitrijs2005/fundingdeploy/internal/models"
)

// Uploader stores content and returns its content identifier.
type Uploader interface {
	// UploadImages stores every image and returns one UploadedImage per input,
	// in input order. It either succeeds for all images or returns an error.
	UploadImages(ctx context.Context, images []models.ImageAsset) ([]models.UploadedImage, error)

	// UploadMetadata stores a single metadata document and returns its content id.
	UploadMetadata(ctx context.Context, meta models.TokenMetadata) (string, error)
}

// Provider names accepted in configuration.
const (
	ProviderPinata   = "pinata"
	ProviderFilebase = "filebase"
)
