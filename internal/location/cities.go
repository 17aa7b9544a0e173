package location

var utahCities = []string{
	"Salt Lake City",
	"South Salt Lake",
	"West Valley City",
	"West Jordan",
	"South Jordan",
	"Cottonwood Heights",
	"Millcreek",
	"Holladay",
	"Taylorsville",
	"Midvale",
	"Murray",
	"Sandy",
	"Draper",
	"Lehi",
	"American Fork",
	"Orem",
	"Provo",
	"Springville",
	"Park City",
	"Heber City",
	"Ogden",
	"Layton",
	"Bountiful",
	"Logan",
	"St. George",
	"Saint George",
	"Cedar City",
	"Moab",
}

// UtahCities returns the built-in known-city table
func UtahCities() []Location {
	out := make([]Location, len(utahCities))
	for i, c := range utahCities {
		out[i] = Location{City: c, State: "UT"}
	}
	return out
}
