package enums

import "slices"

// SiteClassification is the hazard rating of a pickup site.
type SiteClassification string

const (
	SiteClassificationGreen  SiteClassification = "GREEN"
	SiteClassificationOrange SiteClassification = "ORANGE"
	SiteClassificationRed    SiteClassification = "RED"
)

var validSiteClassifications = []SiteClassification{
	SiteClassificationGreen,
	SiteClassificationOrange,
	SiteClassificationRed,
}

func (s SiteClassification) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SiteClassification.
func (s SiteClassification) IsValid() bool {
	return slices.Contains(validSiteClassifications, s)
}

// ParseSiteClassification converts raw input into a SiteClassification.
func ParseSiteClassification(value string) (SiteClassification, error) {
	return parse(value, validSiteClassifications, "site classification")
}
