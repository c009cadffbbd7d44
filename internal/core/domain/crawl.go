package domain

// SiteContent is everything a crawl of a candidate website yields:
// rule-extracted menu items plus contact details, feature hints and the
// visible text for downstream analysis.
type SiteContent struct {
	URL          string
	Text         string
	Menus        []MenuItem
	Images       []string
	Phone        string
	Instagram    string
	Features     map[string]FeatureValue
	PagesFetched int
}
