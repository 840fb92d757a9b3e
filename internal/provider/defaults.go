package provider

import (
	"fmt"

	"zetflix/internal/config"
	"zetflix/internal/media"
)

func movieTV(id, name string, priority int, movie, tv string) Provider {
	return Provider{
		ID:          id,
		DisplayName: name,
		Priority:    priority,
		Kinds:       []media.Kind{media.Movie, media.TV},
		Templates:   map[media.Kind]string{media.Movie: movie, media.TV: tv},
	}
}

func anime(id, name string, priority int, tmpl string) Provider {
	return Provider{
		ID:          id,
		DisplayName: name,
		Priority:    priority,
		Kinds:       []media.Kind{media.Anime},
		Templates:   map[media.Kind]string{media.Anime: tmpl},
	}
}

// Defaults returns the built-in provider catalog.
func Defaults() []Provider {
	return []Provider{
		movieTV("vidsrc-pro", "VidSrc Pro", 10,
			"https://vidsrc.pro/embed/movie/{id}",
			"https://vidsrc.pro/embed/tv/{id}/{season}/{episode}"),
		movieTV("vidsrc-xyz", "VidSrc XYZ", 9,
			"https://vidsrc.xyz/embed/movie/{id}",
			"https://vidsrc.xyz/embed/tv/{id}/{season}/{episode}"),
		movieTV("vidsrc-net", "VidSrc Net", 8,
			"https://vidsrc.net/embed/movie/{id}",
			"https://vidsrc.net/embed/tv/{id}/{season}/{episode}"),
		movieTV("embedsito", "EmbedSito", 7,
			"https://www.embedsito.com/v2/movie/{id}",
			"https://www.embedsito.com/v2/tv/{id}/{season}/{episode}"),
		movieTV("multiembed", "MultiEmbed", 6,
			"https://multiembed.mov/?video_id={id}&tmdb=1",
			"https://multiembed.mov/?video_id={id}&tmdb=1&s={season}&e={episode}"),
		movieTV("smashystream", "SmashyStream", 5,
			"https://embed.smashystream.com/playere.php?tmdb={id}",
			"https://embed.smashystream.com/playere.php?tmdb={id}&season={season}&episode={episode}"),
		movieTV("autoembed", "AutoEmbed", 4,
			"https://player.autoembed.cc/embed/movie/{id}",
			"https://player.autoembed.cc/embed/tv/{id}/{season}/{episode}"),
		movieTV("moviesapi", "MoviesAPI", 3,
			"https://moviesapi.club/movie/{id}",
			"https://moviesapi.club/tv/{id}-{season}-{episode}"),
		movieTV("youtube-trailers", "YouTube Trailers", 2,
			"https://www.youtube.com/embed/search?q={titleQuery}+{year}+trailer",
			"https://www.youtube.com/embed/search?q={titleQuery}+season+{season}+trailer"),
		movieTV("archive-org", "Internet Archive", 1,
			"https://archive.org/embed/{titleSlug}-{year}",
			"https://archive.org/embed/{titleSlug}-s{season}e{episode}"),

		anime("animepahe", "AnimePahe", 10, "https://kwik.cx/e/{titleSlug}-{episode}"),
		anime("gogoanime", "GogoAnime", 9, "https://gogoanime.lu/embed/{titleSlug}-episode-{episode}"),
		anime("9anime", "9Anime", 8, "https://9anime.to/embed/{titleSlug}/{episode}"),
		anime("crunchyroll-free", "Crunchyroll Free", 7, "https://www.crunchyroll.com/embed/{titleSlug}/{episode}"),
	}
}

// FromConfig merges configured providers into the built-in catalog and applies the
// disabled list. A configured provider whose id matches a built-in replaces it in place.
func FromConfig(entries []config.ProviderConfig, disabled []string) ([]Provider, error) {
	providers := Defaults()
	index := make(map[string]int, len(providers))
	for i, p := range providers {
		index[p.ID] = i
	}

	for _, entry := range entries {
		p, err := fromEntry(entry)
		if err != nil {
			return nil, err
		}
		if i, ok := index[p.ID]; ok {
			providers[i] = p
			continue
		}
		index[p.ID] = len(providers)
		providers = append(providers, p)
	}

	for _, id := range disabled {
		i, ok := index[id]
		if !ok {
			return nil, fmt.Errorf("disabled_providers: unknown provider %q", id)
		}
		providers[i].Status = Disabled
	}

	return providers, nil
}

func fromEntry(entry config.ProviderConfig) (Provider, error) {
	p := Provider{
		ID:          entry.ID,
		DisplayName: entry.Name,
		Priority:    entry.Priority,
		Templates:   make(map[media.Kind]string, len(entry.Templates)),
	}
	if p.DisplayName == "" {
		p.DisplayName = entry.ID
	}
	if entry.Disabled {
		p.Status = Disabled
	}
	for _, k := range entry.Kinds {
		kind, err := media.ParseKind(k)
		if err != nil {
			return Provider{}, &ValidationError{ProviderID: entry.ID, Field: "kinds", Reason: err.Error()}
		}
		p.Kinds = append(p.Kinds, kind)
	}
	for k, tmpl := range entry.Templates {
		kind, err := media.ParseKind(k)
		if err != nil {
			return Provider{}, &ValidationError{ProviderID: entry.ID, Field: "templates", Reason: err.Error()}
		}
		p.Templates[kind] = tmpl
	}
	return p, nil
}

// Load builds the registry described by cfg.
func Load(cfg *config.Config) (*Registry, error) {
	providers, err := FromConfig(cfg.Providers, cfg.DisabledProviders)
	if err != nil {
		return nil, err
	}
	return NewRegistry(providers...)
}
