// Package tmdb provides a client for The Movie Database API.
package tmdb

import "strconv"

// ImageBaseURL is the CDN prefix for poster and backdrop paths.
const ImageBaseURL = "https://image.tmdb.org/t/p/"

// Result is one entry of a paged list, search or discover response.
// Movies fill Title/ReleaseDate, shows fill Name/FirstAirDate.
type Result struct {
	ID            int64   `json:"id"`
	MediaType     string  `json:"media_type,omitempty"` // only set by search/multi and trending
	Title         string  `json:"title,omitempty"`
	Name          string  `json:"name,omitempty"`
	OriginalTitle string  `json:"original_title,omitempty"`
	OriginalName  string  `json:"original_name,omitempty"`
	Overview      string  `json:"overview"`
	PosterPath    string  `json:"poster_path"`
	ReleaseDate   string  `json:"release_date,omitempty"`
	FirstAirDate  string  `json:"first_air_date,omitempty"`
	VoteAverage   float64 `json:"vote_average"`
	Popularity    float64 `json:"popularity"`
	GenreIDs      []int   `json:"genre_ids"`
}

// Page is TMDB's paging envelope.
type Page struct {
	Page         int      `json:"page"`
	Results      []Result `json:"results"`
	TotalPages   int      `json:"total_pages"`
	TotalResults int      `json:"total_results"`
}

// Genre represents a movie or TV genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type genreList struct {
	Genres []Genre `json:"genres"`
}

// Video is a trailer or clip attached via append_to_response=videos.
type Video struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Site string `json:"site"` // "YouTube"
	Type string `json:"type"` // "Trailer", "Teaser", ...
}

// Cast is a credited performer attached via append_to_response=credits.
type Cast struct {
	Name      string `json:"name"`
	Character string `json:"character"`
}

// Movie represents TMDB movie details.
type Movie struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	OriginalTitle string  `json:"original_title"`
	Overview      string  `json:"overview"`
	ReleaseDate   string  `json:"release_date"` // "2024-03-01"
	PosterPath    string  `json:"poster_path"`
	VoteAverage   float64 `json:"vote_average"`
	Popularity    float64 `json:"popularity"`
	Runtime       int     `json:"runtime"` // minutes
	Genres        []Genre `json:"genres"`
	Videos        struct {
		Results []Video `json:"results"`
	} `json:"videos"`
	Credits struct {
		Cast []Cast `json:"cast"`
	} `json:"credits"`
}

// SeasonSummary is the per-season entry embedded in TV details.
type SeasonSummary struct {
	SeasonNumber int    `json:"season_number"`
	Name         string `json:"name"`
	EpisodeCount int    `json:"episode_count"`
	AirDate      string `json:"air_date"`
}

// TV represents TMDB show details.
type TV struct {
	ID               int64           `json:"id"`
	Name             string          `json:"name"`
	OriginalName     string          `json:"original_name"`
	Overview         string          `json:"overview"`
	FirstAirDate     string          `json:"first_air_date"`
	PosterPath       string          `json:"poster_path"`
	VoteAverage      float64         `json:"vote_average"`
	Popularity       float64         `json:"popularity"`
	NumberOfSeasons  int             `json:"number_of_seasons"`
	NumberOfEpisodes int             `json:"number_of_episodes"`
	Status           string          `json:"status"`
	Genres           []Genre         `json:"genres"`
	Seasons          []SeasonSummary `json:"seasons"`
	Videos           struct {
		Results []Video `json:"results"`
	} `json:"videos"`
	Credits struct {
		Cast []Cast `json:"cast"`
	} `json:"credits"`
}

// Episode is one entry of a season listing.
type Episode struct {
	EpisodeNumber int    `json:"episode_number"`
	Name          string `json:"name"`
	Overview      string `json:"overview"`
	AirDate       string `json:"air_date"`
}

// Season represents a TV season with its episodes.
type Season struct {
	ID           int64     `json:"id"`
	SeasonNumber int       `json:"season_number"`
	Name         string    `json:"name"`
	Overview     string    `json:"overview"`
	Episodes     []Episode `json:"episodes"`
}

// Year extracts the year from a "YYYY-MM-DD" date, or 0.
func Year(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}

// ImageURL returns the full image URL for a poster path.
// Size can be: w92, w154, w185, w342, w500, w780, original
func ImageURL(size, path string) string {
	if path == "" {
		return ""
	}
	return ImageBaseURL + size + path
}
