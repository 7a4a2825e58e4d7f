package domain

import "time"

// GitHubUser is the public profile returned by GitHub's /user endpoint.
// Field set follows the GitHub REST v3 user representation.
type GitHubUser struct {
	Login             string     `json:"login"`
	ID                int64      `json:"id"`
	NodeID            string     `json:"node_id"`
	Name              string     `json:"name,omitempty"`
	Email             string     `json:"email,omitempty"`
	AvatarURL         string     `json:"avatar_url"`
	GravatarID        string     `json:"gravatar_id"`
	URL               string     `json:"url"`
	HTMLURL           string     `json:"html_url"`
	FollowersURL      string     `json:"followers_url"`
	FollowingURL      string     `json:"following_url"`
	GistsURL          string     `json:"gists_url"`
	StarredURL        string     `json:"starred_url"`
	SubscriptionsURL  string     `json:"subscriptions_url"`
	OrganizationsURL  string     `json:"organizations_url"`
	ReposURL          string     `json:"repos_url"`
	EventsURL         string     `json:"events_url"`
	ReceivedEventsURL string     `json:"received_events_url"`
	Type              string     `json:"type"`
	SiteAdmin         bool       `json:"site_admin"`
	StarredAt         *time.Time `json:"starred_at,omitempty"`
}
