package campaign

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/inkthread/storefront/internal/domain/shared"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slug length bounds
const (
	MinSlugLength = 3
	MaxSlugLength = 60
)

var (
	slugPattern    = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	slugSeparators = regexp.MustCompile(`[^a-z0-9]+`)
)

// ValidateSlug checks slug length and character set
func ValidateSlug(slug string) error {
	if len(slug) < MinSlugLength || len(slug) > MaxSlugLength {
		return shared.NewDomainError("INVALID_SLUG",
			fmt.Sprintf("Slug must be between %d and %d characters", MinSlugLength, MaxSlugLength))
	}
	if !slugPattern.MatchString(slug) {
		return shared.NewDomainError("INVALID_SLUG",
			"Slug may only contain lowercase letters, digits and single hyphens, and cannot start or end with a hyphen")
	}
	return nil
}

// Slugify turns a campaign name into a slug: accents are folded
// ("Café Crew" -> "cafe-crew"), other runs of non-alphanumerics become a
// single hyphen. Short results are padded with "-campaign".
func Slugify(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}
	s := slugSeparators.ReplaceAllString(strings.ToLower(folded), "-")
	s = strings.Trim(s, "-")
	if len(s) > MaxSlugLength-4 {
		s = strings.Trim(s[:MaxSlugLength-4], "-")
	}
	if len(s) < MinSlugLength {
		s = strings.Trim(s+"-campaign", "-")
	}
	return s
}

// SlugCandidate returns the n-th candidate for a base slug: n <= 1 is the
// base itself, then base-2, base-3, ...
func SlugCandidate(base string, n int) string {
	if n <= 1 {
		return base
	}
	suffix := fmt.Sprintf("-%d", n)
	if len(base)+len(suffix) > MaxSlugLength {
		base = strings.TrimRight(base[:MaxSlugLength-len(suffix)], "-")
	}
	return base + suffix
}
