package catalog

import (
	"html"
	"regexp"
	"strconv"
	"strings"

	"zetflix/internal/anilist"
	"zetflix/internal/media"
	"zetflix/internal/tmdb"
)

// tmdbGenreNames resolves genre_ids on list results without an extra request.
var tmdbGenreNames = map[int]string{
	28: "Action", 12: "Adventure", 16: "Animation", 35: "Comedy", 80: "Crime",
	99: "Documentary", 18: "Drama", 10751: "Family", 14: "Fantasy", 36: "History",
	27: "Horror", 10402: "Music", 9648: "Mystery", 10749: "Romance", 878: "Science Fiction",
	10770: "TV Movie", 53: "Thriller", 10752: "War", 37: "Western",
	10759: "Action & Adventure", 10762: "Kids", 10763: "News", 10764: "Reality",
	10765: "Sci-Fi & Fantasy", 10766: "Soap", 10767: "Talk", 10768: "War & Politics",
}

var htmlTag = regexp.MustCompile(`<[^>]*>`)

func alternate(title, original string) string {
	if original == "" || original == title {
		return ""
	}
	return original
}

// fromTMDBResult maps a list/search entry. Results whose media_type is neither
// movie nor tv (people) are rejected. fallback applies when media_type is absent.
func fromTMDBResult(r tmdb.Result, fallback media.Kind, posterSize string) (media.ContentItem, bool) {
	kind := fallback
	switch r.MediaType {
	case "":
	case "movie":
		kind = media.Movie
	case "tv":
		kind = media.TV
	default:
		return media.ContentItem{}, false
	}

	item := media.ContentItem{
		Kind:       kind,
		ExternalID: strconv.FormatInt(r.ID, 10),
		PosterURL:  tmdb.ImageURL(posterSize, r.PosterPath),
		Rating:     r.VoteAverage,
		Overview:   r.Overview,
		Popularity: r.Popularity,
	}
	if kind == media.TV {
		item.Title = r.Name
		item.AlternateTitle = alternate(r.Name, r.OriginalName)
		item.Year = tmdb.Year(r.FirstAirDate)
	} else {
		item.Title = r.Title
		item.AlternateTitle = alternate(r.Title, r.OriginalTitle)
		item.Year = tmdb.Year(r.ReleaseDate)
	}
	for _, id := range r.GenreIDs {
		if name, ok := tmdbGenreNames[id]; ok {
			item.Genres = append(item.Genres, name)
		}
	}
	return item, true
}

func fromTMDBResults(results []tmdb.Result, fallback media.Kind, posterSize string) []media.ContentItem {
	items := make([]media.ContentItem, 0, len(results))
	for _, r := range results {
		if item, ok := fromTMDBResult(r, fallback, posterSize); ok {
			items = append(items, item)
		}
	}
	return items
}

func genreNames(genres []tmdb.Genre) []string {
	names := make([]string, 0, len(genres))
	for _, g := range genres {
		names = append(names, g.Name)
	}
	return names
}

func fromTMDBMovie(m *tmdb.Movie, posterSize string) media.ContentItem {
	return media.ContentItem{
		Kind:           media.Movie,
		ExternalID:     strconv.FormatInt(m.ID, 10),
		Title:          m.Title,
		AlternateTitle: alternate(m.Title, m.OriginalTitle),
		PosterURL:      tmdb.ImageURL(posterSize, m.PosterPath),
		Rating:         m.VoteAverage,
		Year:           tmdb.Year(m.ReleaseDate),
		Overview:       m.Overview,
		Popularity:     m.Popularity,
		Genres:         genreNames(m.Genres),
	}
}

func fromTMDBTV(t *tmdb.TV, posterSize string) media.ContentItem {
	return media.ContentItem{
		Kind:           media.TV,
		ExternalID:     strconv.FormatInt(t.ID, 10),
		Title:          t.Name,
		AlternateTitle: alternate(t.Name, t.OriginalName),
		PosterURL:      tmdb.ImageURL(posterSize, t.PosterPath),
		Rating:         t.VoteAverage,
		Year:           tmdb.Year(t.FirstAirDate),
		Overview:       t.Overview,
		SeasonCount:    t.NumberOfSeasons,
		EpisodeCount:   t.NumberOfEpisodes,
		Popularity:     t.Popularity,
		Genres:         genreNames(t.Genres),
		Status:         t.Status,
	}
}

// fromAniList maps an AniList media entry. The English title wins, then romaji, then native.
func fromAniList(m anilist.Media) media.ContentItem {
	title := m.Title.Preferred()
	alt := ""
	switch {
	case m.Title.Romaji != "" && m.Title.Romaji != title:
		alt = m.Title.Romaji
	case m.Title.Native != "" && m.Title.Native != title:
		alt = m.Title.Native
	}

	poster := m.CoverImage.Large
	if poster == "" {
		poster = m.CoverImage.Medium
	}
	year := m.StartDate.Year
	if year == 0 {
		year = m.SeasonYear
	}

	return media.ContentItem{
		Kind:           media.Anime,
		ExternalID:     strconv.FormatInt(m.ID, 10),
		Title:          title,
		AlternateTitle: alt,
		PosterURL:      poster,
		Rating:         float64(m.AverageScore) / 10,
		Year:           year,
		Overview:       stripHTML(m.Description),
		EpisodeCount:   m.Episodes,
		Popularity:     float64(m.Popularity),
		Genres:         m.Genres,
		Status:         anilist.StatusLabel(m.Status),
		Format:         anilist.FormatLabel(m.Format),
	}
}

func fromAniListPage(page *anilist.Page) []media.ContentItem {
	items := make([]media.ContentItem, 0, len(page.Media))
	for _, m := range page.Media {
		items = append(items, fromAniList(m))
	}
	return items
}

func stripHTML(s string) string {
	return strings.TrimSpace(html.UnescapeString(htmlTag.ReplaceAllString(s, "")))
}
