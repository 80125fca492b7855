package domain

// CatalogItem is a movie or TV entry as listed by the metadata provider.
type CatalogItem struct {
	ID           int       `json:"id"`
	Title        string    `json:"title"`
	Overview     string    `json:"overview"`
	PosterPath   string    `json:"poster_path,omitempty"`
	BackdropPath string    `json:"backdrop_path,omitempty"`
	ReleaseDate  string    `json:"release_date,omitempty"`
	VoteAverage  float64   `json:"vote_average"`
	MediaType    MediaKind `json:"media_type,omitempty"`
	GenreIDs     []int     `json:"genre_ids,omitempty"`
}

type CatalogPage struct {
	Page         int           `json:"page"`
	TotalPages   int           `json:"total_pages"`
	TotalResults int           `json:"total_results"`
	Results      []CatalogItem `json:"results"`
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type ImageConfig struct {
	SecureBaseURL string   `json:"secure_base_url"`
	PosterSizes   []string `json:"poster_sizes"`
	BackdropSizes []string `json:"backdrop_sizes"`
	ProfileSizes  []string `json:"profile_sizes"`
}

// ImageURLs are the prefixes the front-end joins with poster/backdrop/profile paths.
type ImageURLs struct {
	Backdrop string `json:"backdrop"`
	Poster   string `json:"poster"`
	Profile  string `json:"profile"`
}

type Bootstrap struct {
	Images ImageURLs     `json:"images"`
	Genres map[int]Genre `json:"genres"`
}

type Video struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Site string `json:"site"`
	Type string `json:"type"`
}

type CastMember struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Character   string `json:"character"`
	ProfilePath string `json:"profile_path,omitempty"`
}

type CrewMember struct {
	Name string `json:"name"`
	Job  string `json:"job"`
}

type Credits struct {
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

type TitleDetails struct {
	CatalogItem
	Tagline string  `json:"tagline,omitempty"`
	Runtime int     `json:"runtime,omitempty"`
	Status  string  `json:"status,omitempty"`
	Genres  []Genre `json:"genres"`
}

// DetailsBundle is everything the detail page needs in one response.
type DetailsBundle struct {
	Details TitleDetails `json:"details"`
	Videos  []Video      `json:"videos"`
	Trailer *Video       `json:"trailer,omitempty"`
	Credits Credits      `json:"credits"`
}
