// Package tokenuri turns a directory of images into the ordered list of
// metadata URIs the NFT contract is constructed with.
//
// A run has two upload stages: all images go up in one bulk call, then one
// metadata document per image is built from the template and uploaded on its
// own. The i-th URI returned always belongs to the i-th image read.
package tokenuri

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/fundingdeploy/internal/common"
	"github.com/dmitrijs2005/fundingdeploy/internal/logging"
	"github.com/dmitrijs2005/fundingdeploy/internal/models"
	"github.com/dmitrijs2005/fundingdeploy/internal/upload"
)

// DefaultDescription is used when no description template is configured.
const DefaultDescription = "A governance {name} token for voting/funding."

// ImageSource lists images in a directory.
type ImageSource interface {
	Read(ctx context.Context, dir string) ([]models.ImageAsset, error)
}

// Options tune how metadata documents are built.
type Options struct {
	Extensions  []string
	Description string
	TraitType   string
}

type Pipeline struct {
	source      ImageSource
	uploader    upload.Uploader
	template    models.MetadataTemplate
	extensions  []string
	description string
	logger      logging.Logger
}

func NewPipeline(source ImageSource, uploader upload.Uploader, opts Options, logger logging.Logger) *Pipeline {
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	desc := opts.Description
	if desc == "" {
		desc = DefaultDescription
	}
	return &Pipeline{
		source:      source,
		uploader:    uploader,
		template:    models.NewMetadataTemplate(opts.TraitType),
		extensions:  exts,
		description: desc,
		logger:      logger,
	}
}

// Generate reads the images in dir, uploads them, uploads one metadata
// document per image and returns the metadata URIs in image order.
// Any failure aborts the whole run and no URIs are returned.
func (p *Pipeline) Generate(ctx context.Context, dir string) ([]string, error) {
	images, err := p.source.Read(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrSourceRead, err)
	}

	if len(images) == 0 {
		p.logger.Info(ctx, "no images found", "dir", dir)
		return []string{}, nil
	}

	p.logger.Info(ctx, "uploading images", "dir", dir, "count", len(images))
	uploaded, err := p.uploader.UploadImages(ctx, images)
	if err != nil {
		return nil, fmt.Errorf("%w: images: %w", common.ErrUpload, err)
	}
	if err := checkAligned(images, uploaded); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrUpload, err)
	}

	uris := make([]string, 0, len(images))
	for i := range images {
		meta := p.BuildMetadata(uploaded[i])

		p.logger.Info(ctx, "uploading metadata", "name", meta.Name, "index", i)
		cid, err := p.uploader.UploadMetadata(ctx, meta)
		if err != nil {
			return nil, fmt.Errorf("%w: metadata %q: %w", common.ErrUpload, meta.Name, err)
		}
		uris = append(uris, models.ContentURI(cid))
	}

	p.logger.Info(ctx, "token URIs uploaded", "count", len(uris))
	return uris, nil
}

// BuildMetadata clones the template for one uploaded image.
func (p *Pipeline) BuildMetadata(img models.UploadedImage) models.TokenMetadata {
	name := DisplayName(img.Filename, p.extensions)
	return p.template.Clone(
		name,
		models.RenderDescription(p.description, name),
		models.ContentURI(img.ContentID),
	)
}

func checkAligned(images []models.ImageAsset, uploaded []models.UploadedImage) error {
	if len(images) != len(uploaded) {
		return fmt.Errorf("%w: %d images, %d results", common.ErrLengthMismatch, len(images), len(uploaded))
	}
	for i := range images {
		if uploaded[i].Filename != images[i].Filename {
			return fmt.Errorf("%w: position %d holds %q, want %q",
				common.ErrLengthMismatch, i, uploaded[i].Filename, images[i].Filename)
		}
	}
	return nil
}
