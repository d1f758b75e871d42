package discovery

import "cinetile/models"

// previewMovies is the curated offline sample served when no generative API
// key is configured. The page built from it is flagged as degraded.
var previewMovies = []models.Movie{
	{
		ID:          "tt0133093",
		Title:       "The Matrix",
		Year:        "1999",
		Genre:       "Action, Sci-Fi",
		Description: "A computer hacker learns from mysterious rebels about the true nature of his reality and his role in the war against its controllers.",
		PosterURL:   "https://m.media-amazon.com/images/M/MV5BN2NmN2VhMTQtMDNiOS00NDlhLTliMjgtODE2ZTY0ODQyNDRhXkEyXkFqcGc@._V1_SX300.jpg",
	},
	{
		ID:          "tt0468569",
		Title:       "The Dark Knight",
		Year:        "2008",
		Genre:       "Action, Crime, Drama",
		Description: "When the menace known as the Joker wreaks havoc and chaos on the people of Gotham, Batman must accept one of the greatest psychological and physical tests of his ability to fight injustice.",
		PosterURL:   "https://m.media-amazon.com/images/M/MV5BMTMxNTMwODM0NF5BMl5BanBnXkFtZTcwODAyMTk2Mw@@._V1_SX300.jpg",
	},
	{
		ID:          "tt1375666",
		Title:       "Inception",
		Year:        "2010",
		Genre:       "Action, Adventure, Sci-Fi",
		Description: "A thief who steals corporate secrets through the use of dream-sharing technology is given the inverse task of planting an idea into the mind of a C.E.O.",
		PosterURL:   "https://m.media-amazon.com/images/M/MV5BMjAxMzY3NjcxNF5BMl5BanBnXkFtZTcwNTI5OTM0Mw@@._V1_SX300.jpg",
	},
	{
		ID:          "tt0110912",
		Title:       "Pulp Fiction",
		Year:        "1994",
		Genre:       "Crime, Drama",
		Description: "The lives of two mob hitmen, a boxer, a gangster and his wife, and a pair of diner bandits intertwine in four tales of violence and redemption.",
		PosterURL:   "https://m.media-amazon.com/images/M/MV5BYTViYTE3ZGQtNDVmMC00UU4yLTg5Y2ItN2RkMWFkY2I1MGNlXkEyXkFqcGc@._V1_SX300.jpg",
	},
	{
		ID:          "tt0068646",
		Title:       "The Godfather",
		Year:        "1972",
		Genre:       "Crime, Drama",
		Description: "The aging patriarch of an organized crime dynasty transfers control of his clandestine empire to his reluctant son.",
		PosterURL:   "https://m.media-amazon.com/images/M/MV5BYTJkNGIyZGUtZDMyNC00Y2SfLTlmZDMtZDU2Y2I2NGZkMjE4XkEyXkFqcGc@._V1_SX300.jpg",
	},
	{
		ID:          "tt0111161",
		Title:       "The Shawshank Redemption",
		Year:        "1994",
		Genre:       "Drama",
		Description: "Over the course of several years, two convicts form a friendship, seeking consolation and, eventually, redemption through basic compassion.",
		PosterURL:   "https://m.media-amazon.com/images/M/MV5BMDAyY2FhYjctNDc5OS00MDN2LWFjN2MtMGE4M2FmZGNmZGRjXkEyXkFqcGc@._V1_SX300.jpg",
	},
}

func previewPage() []models.Movie {
	cloned := make([]models.Movie, len(previewMovies))
	copy(cloned, previewMovies)
	return cloned
}
