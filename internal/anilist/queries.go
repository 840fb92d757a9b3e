package anilist

// mediaFields is shared by every page query.
const mediaFields = `
      id
      title { romaji english native }
      description
      coverImage { large medium color }
      bannerImage
      averageScore
      episodes
      status
      format
      startDate { year month day }
      genres
      studios(isMain: true) { nodes { name } }
      popularity
      favourites
      source
      duration
      season
      seasonYear`

const pageInfoFields = `
    pageInfo { total currentPage lastPage hasNextPage }`

const trendingQuery = `query TrendingAnime($page: Int, $perPage: Int) {
  Page(page: $page, perPage: $perPage) {` + pageInfoFields + `
    media(type: ANIME, sort: TRENDING_DESC, status: RELEASING, isAdult: false) {` + mediaFields + `
    }
  }
}`

const searchQuery = `query SearchAnime($search: String, $page: Int, $perPage: Int) {
  Page(page: $page, perPage: $perPage) {` + pageInfoFields + `
    media(type: ANIME, search: $search, isAdult: false) {` + mediaFields + `
    }
  }
}`

const genreQuery = `query AnimeByGenre($genre: String, $page: Int, $perPage: Int) {
  Page(page: $page, perPage: $perPage) {` + pageInfoFields + `
    media(type: ANIME, genre: $genre, sort: POPULARITY_DESC, isAdult: false) {` + mediaFields + `
    }
  }
}`
