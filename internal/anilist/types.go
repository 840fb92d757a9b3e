// Package anilist provides a client for the AniList GraphQL API.
package anilist

// Title holds the localized titles AniList returns for a show.
type Title struct {
	Romaji  string `json:"romaji"`
	English string `json:"english"`
	Native  string `json:"native"`
}

// Preferred returns the English title, falling back to romaji then native.
func (t Title) Preferred() string {
	switch {
	case t.English != "":
		return t.English
	case t.Romaji != "":
		return t.Romaji
	default:
		return t.Native
	}
}

// CoverImage holds poster URLs.
type CoverImage struct {
	Large  string `json:"large"`
	Medium string `json:"medium"`
	Color  string `json:"color"`
}

// FuzzyDate is AniList's partially-known date.
type FuzzyDate struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// Studio is an animation studio credit.
type Studio struct {
	Name string `json:"name"`
}

// Media is one anime entry.
type Media struct {
	ID           int64      `json:"id"`
	Title        Title      `json:"title"`
	Description  string     `json:"description"`
	CoverImage   CoverImage `json:"coverImage"`
	BannerImage  string     `json:"bannerImage"`
	AverageScore int        `json:"averageScore"` // 0-100, 0 when unrated
	Episodes     int        `json:"episodes"`
	Status       string     `json:"status"`
	Format       string     `json:"format"`
	StartDate    FuzzyDate  `json:"startDate"`
	Genres       []string   `json:"genres"`
	Studios      struct {
		Nodes []Studio `json:"nodes"`
	} `json:"studios"`
	Popularity int    `json:"popularity"`
	Favourites int    `json:"favourites"`
	Source     string `json:"source"`
	Duration   int    `json:"duration"` // minutes per episode
	Season     string `json:"season"`
	SeasonYear int    `json:"seasonYear"`
}

// PageInfo is the paging envelope of a Page query.
type PageInfo struct {
	Total       int  `json:"total"`
	CurrentPage int  `json:"currentPage"`
	LastPage    int  `json:"lastPage"`
	HasNextPage bool `json:"hasNextPage"`
}

// Page is the result of a paged media query.
type Page struct {
	PageInfo PageInfo `json:"pageInfo"`
	Media    []Media  `json:"media"`
}

// StatusLabel maps AniList's status enum to a display label.
func StatusLabel(status string) string {
	switch status {
	case "RELEASING":
		return "Currently Airing"
	case "FINISHED":
		return "Finished Airing"
	case "NOT_YET_RELEASED":
		return "Not yet aired"
	case "CANCELLED":
		return "Cancelled"
	case "HIATUS":
		return "On Hiatus"
	default:
		return status
	}
}

// FormatLabel maps AniList's format enum to a display label.
func FormatLabel(format string) string {
	switch format {
	case "TV", "TV_SHORT":
		return "TV"
	case "MOVIE":
		return "Movie"
	case "SPECIAL":
		return "Special"
	case "OVA":
		return "OVA"
	case "ONA":
		return "ONA"
	case "MUSIC":
		return "Music"
	case "":
		return "Unknown"
	default:
		return format
	}
}

// Genres is AniList's fixed genre list.
var Genres = []string{
	"Action", "Adventure", "Comedy", "Drama", "Ecchi", "Fantasy", "Horror",
	"Mahou Shoujo", "Mecha", "Music", "Mystery", "Psychological", "Romance",
	"Sci-Fi", "Slice of Life", "Sports", "Supernatural", "Thriller",
}
