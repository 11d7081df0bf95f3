package wizard

import (
	"errors"
	"fmt"

	"github.com/onegreenvn/campaign-builder-backend/internal/gateway"
)

var (
	ErrNoMediaSelected = errors.New("wizard: select at least one media channel")
	ErrUnknownMedia    = errors.New("wizard: unknown media channel or spec")
)

// MediaChannel is a distribution channel offered on the media stage.
type MediaChannel struct {
	ID    string              `json:"id"`
	Name  string              `json:"name"`
	Specs []gateway.MediaSpec `json:"specs,omitempty"`
}

// Channels lists the selectable media channels.
var Channels = []MediaChannel{
	{ID: "web", Name: "Web"},
	{ID: "digital", Name: "Digital ads"},
	{ID: "social", Name: "Social media", Specs: []gateway.MediaSpec{
		{Channel: "social", ID: "instagram-square", Width: 1080, Height: 1080},
		{Channel: "social", ID: "instagram-story", Width: 1080, Height: 1920},
		{Channel: "social", ID: "facebook-feed", Width: 1200, Height: 628},
		{Channel: "social", ID: "linkedin-post", Width: 1200, Height: 627},
	}},
	{ID: "print", Name: "Print"},
	{ID: "video", Name: "Video"},
	{ID: "email", Name: "Email"},
}

func channel(id string) (MediaChannel, bool) {
	for _, c := range Channels {
		if c.ID == id {
			return c, true
		}
	}
	return MediaChannel{}, false
}

// ResolveMedia validates a media selection. Duplicates are dropped and
// order is kept. Specs must belong to a selected channel.
func ResolveMedia(channelIDs, specIDs []string) ([]string, []gateway.MediaSpec, error) {
	media := make([]string, 0, len(channelIDs))
	seen := map[string]bool{}
	for _, id := range channelIDs {
		if seen[id] {
			continue
		}
		if _, ok := channel(id); !ok {
			return nil, nil, fmt.Errorf("%w: channel %q", ErrUnknownMedia, id)
		}
		seen[id] = true
		media = append(media, id)
	}
	if len(media) == 0 {
		return nil, nil, ErrNoMediaSelected
	}

	specs := make([]gateway.MediaSpec, 0, len(specIDs))
	seenSpec := map[string]bool{}
	for _, id := range specIDs {
		if seenSpec[id] {
			continue
		}
		spec, ok := findSpec(id)
		if !ok {
			return nil, nil, fmt.Errorf("%w: spec %q", ErrUnknownMedia, id)
		}
		if !seen[spec.Channel] {
			return nil, nil, fmt.Errorf("%w: spec %q needs channel %q", ErrUnknownMedia, id, spec.Channel)
		}
		seenSpec[id] = true
		specs = append(specs, spec)
	}
	return media, specs, nil
}

func findSpec(id string) (gateway.MediaSpec, bool) {
	for _, c := range Channels {
		for _, s := range c.Specs {
			if s.ID == id {
				return s, true
			}
		}
	}
	return gateway.MediaSpec{}, false
}
