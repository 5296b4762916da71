package pipeline

import (
	"fmt"
	"strings"

	"shortforge/internal/youtube"
)

// BuildMetadata derives the upload metadata deterministically from the
// niche. Two runs for the same niche always produce identical
// metadata; only the footage differs.
func BuildMetadata(niche string) youtube.Metadata {
	return youtube.Metadata{
		Title:       fmt.Sprintf("5 Second %s Hacks! 🚀", capitalize(niche)),
		Description: fmt.Sprintf("Amazing %s tips you need to try!", niche),
		Tags:        []string{niche, "shorts", "viral"},
		Niche:       niche,
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
