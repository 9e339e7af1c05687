package services

import (
	"context"
	"fmt"
)

// Edge-shaped timeline nodes as the profile page used to embed them
const timelineEdgesJSON = `[` +
	`{"node":{"shortcode":"abc123","display_url":"https://cdn.example/abc123.jpg","edge_media_to_caption":{"edges":[{"node":{"text":"Hello reef"}}]},"edge_liked_by":{"count":42},"edge_media_to_comment":{"count":7}}},` +
	`{"node":{"shortcode":"def456","thumbnail_src":"https://cdn.example/def456.jpg","edge_media_to_caption":{"edges":[]},"edge_media_preview_like":{"count":3}}}` +
	`]`

func sharedDataPage() string {
	return `<!DOCTYPE html><html><head><title>cubsgulf</title></head><body>` +
		`<script type="text/javascript">window._sharedData = {"config":{"viewer":null},"entry_data":{"ProfilePage":[{"graphql":{"user":{"username":"cubsgulf","edge_owner_to_timeline_media":{"count":2,"edges":` +
		timelineEdgesJSON +
		`}}}}]},"hostname":"www.instagram.com"};</script>` +
		`</body></html>`
}

func brokenThenAdditionalDataPage() string {
	return `<html><body>` +
		`<script>window._sharedData = {broken json, "entry_data": nope};</script>` + "\n" +
		`<script>window.__additionalDataLoaded('/cubsgulf/',{"graphql":{"user":{"edge_owner_to_timeline_media":{"edges":` +
		timelineEdgesJSON +
		`}}}});</script>` +
		`</body></html>`
}

func discoverMediaPage() string {
	return `<html><body><script>window._sharedData = {"entry_data":{"ProfilePage":[{"graphql":{"user":{"edge_owner_to_timeline_media":{"edges":[]},"edge_web_discover_media":{"edges":[{"node":{"shortcode":"disc1","display_url":"https://cdn.example/disc1.jpg"}}]}}}}]}};</script></body></html>`
}

func linkedDataPage(withStatistics bool) string {
	entity := `{"@type":"ProfilePage","mainEntityofPage":{"@type":"ProfilePage","@id":"https://www.instagram.com/cubsgulf/"}}`
	if withStatistics {
		entity = `{"@type":"ProfilePage","mainEntityofPage":{"@type":"ProfilePage","interactionStatistic":{"@type":"InteractionCounter","userInteractionCount":1200}}}`
	}
	return `<html><head>` +
		`<script type="application/ld+json">{not valid json</script>` +
		`<script type="application/ld+json">` + entity + `</script>` +
		`</head><body>no embedded data here</body></html>`
}

func structuredEndpointJSON() map[string]interface{} {
	return map[string]interface{}{
		"graphql": map[string]interface{}{
			"user": map[string]interface{}{
				"edge_owner_to_timeline_media": map[string]interface{}{
					"edges": []interface{}{
						map[string]interface{}{"node": map[string]interface{}{"shortcode": "api1", "display_url": "https://cdn.example/api1.jpg"}},
					},
				},
			},
		},
	}
}

// fakeSource is an in-memory ProfileSource that counts calls per resource
type fakeSource struct {
	data      map[string]interface{}
	dataErr   error
	page      string
	pageErr   error
	dataCalls int
	pageCalls int
	profiles  []HeaderProfile
}

func (f *fakeSource) BaseURL() string { return "https://www.instagram.com" }

func (f *fakeSource) FetchProfileData(ctx context.Context, handle string) (map[string]interface{}, error) {
	f.dataCalls++
	if f.dataErr != nil {
		return nil, f.dataErr
	}
	if f.data == nil {
		return map[string]interface{}{}, nil
	}
	return f.data, nil
}

func (f *fakeSource) FetchProfilePage(ctx context.Context, handle string, profile HeaderProfile) (string, error) {
	f.pageCalls++
	f.profiles = append(f.profiles, profile)
	if f.pageErr != nil {
		return "", f.pageErr
	}
	return f.page, nil
}

func upstreamDown(status int) error {
	return fmt.Errorf("%w: returned status %d", ErrUpstreamUnavailable, status)
}
