package routes

// Page is a logical navigation target. Resolving a page to a concrete URL is
// the embedding application's job; the pipeline only decides which page a
// classified failure should land on.
type Page string

const (
	PageLogin              Page = "login"
	PageAccessVerification Page = "access-verification"
	PageSubscription       Page = "subscription-management"
	PageSystemUnavailable  Page = "system-unavailable"
	PageDashboard          Page = "dashboard"
)
