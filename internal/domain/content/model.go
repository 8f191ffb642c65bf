// Package content holds the read-only public feed types: blog posts and gallery items.
package content

// Blog is a blog post on the public site.
type Blog struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Slug        string `json:"slug,omitempty"`
	Image       string `json:"image,omitempty"`
	Excerpt     string `json:"excerpt,omitempty"`
	Content     string `json:"content,omitempty"`
	PublishedAt string `json:"publishedAt,omitempty"`
}

// GalleryItem is one photo in the public gallery.
type GalleryItem struct {
	ID      string `json:"id,omitempty"`
	Image   string `json:"image"`
	Caption string `json:"caption,omitempty"`
	Album   string `json:"album,omitempty"`
}
