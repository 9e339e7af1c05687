package models

import "fmt"

// Placeholder images served when no live posts are available
const (
	PlaceholderFollowImage   = "https://via.placeholder.com/400x400/8BC0B2/FFFFFF?text=Follow+Us"
	PlaceholderInspireImage  = "https://via.placeholder.com/400x400/EDC821/FFFFFF?text=Stay+Inspired"
	PlaceholderDiscoverImage = "https://via.placeholder.com/400x400/E4405F/FFFFFF?text=Discover+More"
	PlaceholderTestImage     = "https://via.placeholder.com/400x400/8BC0B2/FFFFFF?text=Instagram+Post"
)

// FallbackPosts returns the static posts emitted when extraction fails
func FallbackPosts(handle string) []PostSummary {
	profile := ProfileURL(handle)
	return []PostSummary{
		{
			Image:   PlaceholderFollowImage,
			Caption: fmt.Sprintf("Follow us on Instagram @%s", handle),
			Link:    profile,
		},
		{
			Image:   PlaceholderInspireImage,
			Caption: "Stay inspired with our latest posts",
			Link:    profile,
		},
		{
			Image:   PlaceholderDiscoverImage,
			Caption: "Discover amazing products and stories",
			Link:    profile,
		},
	}
}

// DiagnosticPosts returns the single canned post served for diagnostic invocations
func DiagnosticPosts(handle string) []PostSummary {
	return []PostSummary{
		{
			Image:   PlaceholderTestImage,
			Caption: "Test mode: fallback data",
			Link:    ProfileURL(handle),
		},
	}
}

// ProfilePlaceholderNode builds the generic node synthesized from structured page metadata.
// It references the profile itself, not an actual post.
func ProfilePlaceholderNode(baseURL, handle string) RawNode {
	return NewFlatNode(map[string]interface{}{
		"image":    fmt.Sprintf("%s/%s/media/?size=l", baseURL, handle),
		"caption":  fmt.Sprintf("Follow @%s on Instagram", handle),
		"link":     ProfileURL(handle),
		"likes":    0,
		"comments": 0,
	})
}
