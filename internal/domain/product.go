package domain

// Product is the garment record referenced by a try-on job. Read-only to
// this service; the catalog owns its lifecycle.
type Product struct {
	ID      string
	Title   string
	Image   string
	Gallery []string
}

// GarmentImageURL picks the image the provider should dress the user in:
// the primary image when present, otherwise the first gallery entry.
func (p *Product) GarmentImageURL() string {
	if p.Image != "" {
		return p.Image
	}
	if len(p.Gallery) > 0 {
		return p.Gallery[0]
	}
	return ""
}
