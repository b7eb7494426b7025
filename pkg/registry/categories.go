package registry

import "strings"

// Categories is the canonical category taxonomy stored in the views.
var Categories = []string{
	"Gaming", "Music", "Entertainment", "Sports", "News & Politics",
	"Science & Technology", "Education", "Film & Animation", "People & Blogs",
	"Comedy", "Howto & Style", "Pets & Animals", "Autos & Vehicles",
	"Travel & Events", "Nonprofits & Activism",
}

// CanonicalCategory returns the taxonomy spelling of name, matched
// case-insensitively.
func CanonicalCategory(name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, c := range Categories {
		if strings.EqualFold(c, name) {
			return c, true
		}
	}
	return "", false
}
