package provider

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/paperpulse/enrich/metadata"
	"github.com/paperpulse/enrich/thumbnail"
)

// NativePreview looks for a preview image at a predictable URL on the
// source host. A wrong convention or a missing image soft-fails into the
// screenshot services.
type NativePreview struct {
	Fetch *Fetcher
	// URLTemplate contains {id}, replaced by the document ID.
	URLTemplate string
}

func (p *NativePreview) Name() string { return "native-preview" }

func (p *NativePreview) Invoke(ctx context.Context, req Request) (*Artifact, error) {
	if p.URLTemplate == "" {
		return nil, fmt.Errorf("%w: no preview URL template configured", ErrUpstreamUnavailable)
	}

	previewURL := strings.ReplaceAll(p.URLTemplate, "{id}", url.PathEscape(req.DocumentID))
	body, contentType, err := p.Fetch.Get(ctx, previewURL, "image/")
	if err != nil {
		return nil, err
	}

	return &Artifact{
		Payload:     body,
		ContentType: contentType,
		Provider:    p.Name(),
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// Screenshot renders the source page through a third-party screenshot
// service. The response must declare an image content type; anything else
// (error pages, HTML placeholders) advances the cascade.
type Screenshot struct {
	Fetch *Fetcher
	// ServiceName labels the artifact, e.g. "thum.io".
	ServiceName string
	// URLTemplate contains {url}, replaced by the escaped source URL.
	URLTemplate string
}

func (p *Screenshot) Name() string { return "screenshot-" + p.ServiceName }

func (p *Screenshot) Invoke(ctx context.Context, req Request) (*Artifact, error) {
	shotURL := strings.ReplaceAll(p.URLTemplate, "{url}", url.QueryEscape(req.SourceURL))
	body, contentType, err := p.Fetch.Get(ctx, shotURL, "image/")
	if err != nil {
		return nil, err
	}

	return &Artifact{
		Payload:     body,
		ContentType: contentType,
		Provider:    p.Name(),
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// ServiceNameFromURL derives a short label from a service URL template.
func ServiceNameFromURL(template string) string {
	u, err := url.Parse(strings.ReplaceAll(template, "{url}", "x"))
	if err != nil || u.Host == "" {
		return "service"
	}
	host := strings.TrimPrefix(u.Host, "www.")
	// Keep the registrable part: image.thum.io -> thum.io.
	parts := strings.Split(host, ".")
	if len(parts) > 2 {
		host = strings.Join(parts[len(parts)-2:], ".")
	}
	return host
}

// Synthesizer renders a deterministic schematic preview from paper
// metadata. It never touches the network for the image itself and always
// succeeds, making it the terminal provider of the thumbnail chain.
type Synthesizer struct {
	Resolver *metadata.Resolver
}

func (p *Synthesizer) Name() string { return "synthesizer" }

func (p *Synthesizer) Invoke(ctx context.Context, req Request) (*Artifact, error) {
	meta := metadata.Paper{ID: req.DocumentID}
	if p.Resolver != nil {
		meta = p.Resolver.Lookup(ctx, req.DocumentID, req.SourceURL)
	}

	png, err := thumbnail.Render(thumbnail.Metadata{
		DocumentID: req.DocumentID,
		Title:      meta.Title,
		Abstract:   meta.Abstract,
		Authors:    meta.Authors,
	})
	if err != nil {
		return nil, err
	}

	return &Artifact{
		Payload:     png,
		ContentType: "image/png",
		Provider:    p.Name(),
		GeneratedAt: time.Now().UTC(),
	}, nil
}
