package catalog

import (
	"context"
	"fmt"
	"strconv"

	"zetflix/internal/httputil"
	"zetflix/internal/media"
)

func tmdbID(item media.ContentItem) (int64, error) {
	if err := httputil.ValidateNumericID(item.ExternalID); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	id, err := strconv.ParseInt(item.ExternalID, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, item.ExternalID)
	}
	return id, nil
}

// Details refreshes a movie or show from TMDB, filling season and episode
// counts. Anime items are returned unchanged; AniList listings already carry
// everything the catalog knows about them.
func (s *Service) Details(ctx context.Context, item media.ContentItem) (media.ContentItem, error) {
	if item.Kind == media.Anime {
		return item, nil
	}
	id, err := tmdbID(item)
	if err != nil {
		return item, err
	}

	var out media.ContentItem
	err = s.call(ctx, backendTMDB, "details", func(ctx context.Context) error {
		if item.Kind == media.TV {
			show, err := s.movies.TV(ctx, id)
			if err != nil {
				return err
			}
			out = fromTMDBTV(show, s.posterSize)
			return nil
		}
		movie, err := s.movies.Movie(ctx, id)
		if err != nil {
			return err
		}
		out = fromTMDBMovie(movie, s.posterSize)
		return nil
	})
	if err != nil {
		return item, err
	}
	return out, nil
}

// Seasons lists a show's numbered seasons; specials (season 0) are skipped.
// Anime has a single implicit season.
func (s *Service) Seasons(ctx context.Context, item media.ContentItem) ([]media.Season, error) {
	switch item.Kind {
	case media.Movie:
		return nil, ErrNotEpisodic
	case media.Anime:
		return []media.Season{{Number: 1, EpisodeCount: item.EpisodeCount}}, nil
	}
	id, err := tmdbID(item)
	if err != nil {
		return nil, err
	}

	var seasons []media.Season
	err = s.call(ctx, backendTMDB, "seasons", func(ctx context.Context) error {
		show, err := s.movies.TV(ctx, id)
		if err != nil {
			return err
		}
		for _, ss := range show.Seasons {
			if ss.SeasonNumber < 1 {
				continue
			}
			seasons = append(seasons, media.Season{
				Number:       ss.SeasonNumber,
				Name:         ss.Name,
				EpisodeCount: ss.EpisodeCount,
			})
		}
		return nil
	})
	return seasons, err
}

// Episodes lists the episodes of one season. Anime episodes are numbered from
// the item's episode count; an unknown count yields an empty list.
func (s *Service) Episodes(ctx context.Context, item media.ContentItem, season int) ([]media.Episode, error) {
	switch item.Kind {
	case media.Movie:
		return nil, ErrNotEpisodic
	case media.Anime:
		episodes := make([]media.Episode, 0, item.EpisodeCount)
		for n := 1; n <= item.EpisodeCount; n++ {
			episodes = append(episodes, media.Episode{Number: n, Title: fmt.Sprintf("Episode %d", n)})
		}
		return episodes, nil
	}
	id, err := tmdbID(item)
	if err != nil {
		return nil, err
	}
	if season < 1 {
		season = 1
	}

	var episodes []media.Episode
	err = s.call(ctx, backendTMDB, "episodes", func(ctx context.Context) error {
		ss, err := s.movies.Season(ctx, id, season)
		if err != nil {
			return err
		}
		for _, ep := range ss.Episodes {
			episodes = append(episodes, media.Episode{
				Number:   ep.EpisodeNumber,
				Title:    ep.Name,
				AirDate:  ep.AirDate,
				Overview: ep.Overview,
			})
		}
		return nil
	})
	return episodes, err
}
