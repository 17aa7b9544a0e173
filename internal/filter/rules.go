package filter

// DefaultRules returns the built-in keyword lists tuned for the Salt Lake
// music scene. A rules file can replace any of the three lists.
func DefaultRules() Rules {
	return Rules{
		Music: []string{
			// genres and formats
			"concert", "show", "gig", "performance", "live music", "live band",
			"band", "musician", "singer", "singer-songwriter",
			"dj", "dance party", "rave",
			"acoustic", "rock", "punk", "metal", "jazz", "blues", "folk", "country",
			"indie", "alternative", "pop", "hip hop", "rap", "reggae", "soul", "funk",
			"electronic", "edm", "techno", "house", "trance", "dubstep",
			"bluegrass", "americana",

			// event types
			"album release", "album launch", "single release",
			"tour", "festival", "open mic", "karaoke",
			"open jam", "jam session", "jam night",
			"battle of the bands", "music night", "music series",

			// venue words
			"venue", "club", "bar", "pub", "tavern", "lounge",
			"theater", "theatre", "hall", "auditorium", "stage",
		},
		Exclude: []string{
			"dance recital", "dance class", "dance workshop", "dance performance",
			"ballet", "tap dance", "jazz dance", "modern dance",
			"yoga", "meditation", "wellness",
			"art class", "art workshop", "art camp", "art market",
			"craft", "sewing", "knitting", "crochet",
			"cooking class", "cooking workshop", "culinary",
			"fitness", "workout", "gym", "exercise",
			"theater", "theatre", "play", "drama",
			"comedy show", "stand-up", "improv",
			"trivia", "bingo", "game night", "board game",
			"book club", "book reading", "author talk",
			"lecture", "seminar",
			"film", "movie", "screening", "cinema",
			"sports", "football", "basketball", "baseball",
			"market", "vendor",
			"art festival", "food festival",
			"exhibition", "gallery", "museum",
			"walking tour", "food tour",
			"charity event",
			"conference", "convention", "expo",
			"training", "course",
			"meetup", "networking", "social",
			"holiday market", "christmas market", "craft fair",
		},
		Venues: []string{
			"commonwealth room", "state room", "urban lounge", "kilby court",
			"metropolitan", "metro", "depot", "complex", "eccles",
			"red butte", "usana", "vivint", "delta center",
			"tavernacle", "twist", "piper down", "beer bar",
			"quarters", "why kiki", "beehive", "handle bar",
			"scion", "hopkins", "2 row", "kiitos", "fisher",
			"garage", "soundwell", "in the venue",
			"club", "bar", "pub", "tavern", "lounge",
		},
	}
}
