package services

import "profile-feed-api/internal/models"

// Field aliases in lookup order. Both the flat node layout and the unwrapped
// {"node": {...}} edge layout resolve against the same lists.
var (
	imageAliases = []string{
		"image",
		"thumbnail_src",
		"display_url",
		"media_url",
		"image_versions2.candidates[0].url",
	}
	captionAliases = []string{
		"caption",
		"text",
		"edge_media_to_caption.edges[0].node.text",
	}
	linkAliases      = []string{"link"}
	shortcodeAliases = []string{"shortcode", "code"}
	likeAliases      = []string{
		"likes",
		"like_count",
		"edge_liked_by.count",
		"edge_media_preview_like.count",
	}
	commentAliases = []string{
		"comments",
		"comment_count",
		"edge_media_to_comment.count",
	}
)

// Normalizer maps raw nodes onto the client-facing schema
type Normalizer struct {
	handle   string
	maxPosts int
}

// NewNormalizer creates a normalizer; links without a shortcode fall back to the handle's profile
func NewNormalizer(handle string) *Normalizer {
	return &Normalizer{
		handle:   handle,
		maxPosts: models.MaxPosts,
	}
}

// Normalize converts at most the first nine nodes into post summaries
func (n *Normalizer) Normalize(nodes []models.RawNode) []models.PostSummary {
	if len(nodes) > n.maxPosts {
		nodes = nodes[:n.maxPosts]
	}

	posts := make([]models.PostSummary, 0, len(nodes))
	for _, node := range nodes {
		posts = append(posts, n.NormalizeNode(node))
	}
	return posts
}

// NormalizeNode converts a single raw node
func (n *Normalizer) NormalizeNode(node models.RawNode) models.PostSummary {
	image, _ := node.FirstString(imageAliases...)
	caption, _ := node.FirstString(captionAliases...)

	return models.PostSummary{
		Image:    image,
		Caption:  caption,
		Link:     n.link(node),
		Likes:    node.FirstCount(likeAliases...),
		Comments: node.FirstCount(commentAliases...),
	}
}

func (n *Normalizer) link(node models.RawNode) string {
	if link, ok := node.FirstString(linkAliases...); ok {
		return link
	}
	if shortcode, ok := node.FirstString(shortcodeAliases...); ok {
		return models.PermalinkURL(shortcode)
	}
	return models.ProfileURL(n.handle)
}
