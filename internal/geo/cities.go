// Package geo holds the fixed Philippine reference data the sync pipeline
// enumerates over: the city list, the city→region map, and the listing
// categories queried per city.
package geo

import "strings"

// Categories are the listing categories queried for every city, in the
// order they are enumerated. Changing this order invalidates any saved
// checkpoint, so append only.
var Categories = []string{
	"Attractions",
	"Hotels",
	"Restaurants",
}

// Cities is the full enumeration list, in checkpoint-stable order.
var Cities = []string{
	"Abuyog", "Alaminos", "Alcala", "Angeles", "Antipolo", "Aroroy", "Bacolod", "Bacoor", "Bago", "Bais",
	"Balanga", "Baliuag", "Bangued", "Bansalan", "Bantayan", "Bataan", "Batac", "Batangas City", "Bayambang", "Bayawan",
	"Baybay", "Bayugan", "Biñan", "Bislig", "Bocaue", "Bogo", "Boracay", "Borongan", "Butuan", "Cabadbaran",
	"Cabanatuan", "Cabuyao", "Cadiz", "Cagayan de Oro", "Calamba", "Calapan", "Calbayog", "Caloocan", "Camiling", "Canlaon",
	"Caoayan", "Capiz", "Caraga", "Carmona", "Catbalogan", "Cauayan", "Cavite City", "Cebu City", "Cotabato City", "Dagupan",
	"Danao", "Dapitan", "Daraga", "Dasmariñas", "Davao City", "Davao del Norte", "Davao del Sur", "Davao Oriental", "Dipolog", "Dumaguete",
	"General Santos", "General Trias", "Gingoog", "Guihulngan", "Himamaylan", "Ilagan", "Iligan", "Iloilo City", "Imus", "Isabela",
	"Isulan", "Kabankalan", "Kidapawan", "Koronadal", "La Carlota", "Laoag", "Lapu-Lapu", "Las Piñas", "Laoang", "Legazpi",
	"Ligao", "Limay", "Lucena", "Maasin", "Mabalacat", "Malabon", "Malaybalay", "Malolos", "Mandaluyong", "Mandaue",
	"Manila", "Marawi", "Marilao", "Masbate City", "Mati", "Meycauayan", "Muntinlupa", "Naga (Camarines Sur)", "Navotas", "Olongapo",
	"Ormoc", "Oroquieta", "Ozamiz", "Pagadian", "Palo", "Parañaque", "Pasay", "Pasig", "Passi", "Puerto Princesa",
	"Quezon City", "Roxas", "Sagay", "Samal", "San Carlos (Negros Occidental)", "San Carlos (Pangasinan)", "San Fernando (La Union)", "San Fernando (Pampanga)",
	"San Jose (Antique)", "San Jose del Monte", "San Juan", "San Pablo", "San Pedro", "Santiago", "Silay", "Sipalay",
	"Sorsogon City", "Surigao City", "Tabaco", "Tabuk", "Tacurong", "Tagaytay", "Tagbilaran", "Taguig", "Tacloban", "Talisay (Cebu)",
	"Talisay (Negros Occidental)", "Tanjay", "Tarlac City", "Tayabas", "Toledo", "Trece Martires", "Tuguegarao", "Urdaneta", "Valencia", "Valenzuela",
	"Victorias", "Vigan", "Virac", "Zamboanga City", "Baguio", "Bohol", "Coron", "El Nido", "Makati", "Palawan", "Siargao",
}

var regionByCity = map[string]string{
	"Abuyog": "Eastern Visayas", "Alaminos": "Calabarzon", "Alcala": "Northern Luzon",
	"Angeles": "Central Luzon", "Antipolo": "Calabarzon", "Aroroy": "Bicol",
	"Bacolod": "Western Visayas", "Bacoor": "Calabarzon", "Bago": "Western Visayas",
	"Bais": "Central Visayas", "Balanga": "Central Luzon", "Baliuag": "Central Luzon",
	"Bangued": "Cordillera", "Bansalan": "Mindanao", "Bantayan": "Central Visayas",
	"Bataan": "Central Luzon", "Batac": "Northern Luzon", "Batangas City": "Calabarzon",
	"Bayambang": "Northern Luzon", "Bayawan": "Negros Oriental", "Baybay": "Eastern Visayas",
	"Bayugan": "Mindanao", "Biñan": "Calabarzon", "Bislig": "Mindanao",
	"Bocaue": "Central Luzon", "Bogo": "Central Visayas", "Boracay": "Western Visayas",
	"Borongan": "Eastern Visayas", "Butuan": "Caraga", "Cabadbaran": "Caraga",
	"Cabanatuan": "Central Luzon", "Cabuyao": "Calabarzon", "Cadiz": "Western Visayas",
	"Cagayan de Oro": "Northern Mindanao", "Calamba": "Calabarzon", "Calapan": "Mimaropa",
	"Calbayog": "Western Visayas", "Caloocan": "Metro Manila", "Camiling": "Northern Luzon",
	"Canlaon": "Negros Oriental", "Caoayan": "Northern Luzon", "Capiz": "Western Visayas",
	"Caraga": "Caraga", "Carmona": "Calabarzon", "Catbalogan": "Eastern Visayas",
	"Cauayan": "Northern Luzon", "Cavite City": "Calabarzon", "Cebu City": "Central Visayas",
	"Cotabato City": "Soccsksargen", "Dagupan": "Northern Luzon", "Danao": "Central Visayas",
	"Dapitan": "Northern Mindanao", "Daraga": "Bicol", "Dasmariñas": "Calabarzon",
	"Davao City": "Davao Region", "Davao del Norte": "Davao Region", "Davao del Sur": "Davao Region",
	"Davao Oriental": "Davao Region", "Dipolog": "Zamboanga", "Dumaguete": "Negros Oriental",
	"General Santos": "Soccsksargen", "General Trias": "Calabarzon", "Gingoog": "Northern Mindanao",
	"Guihulngan": "Negros Oriental", "Himamaylan": "Negros Occidental", "Ilagan": "Northern Luzon",
	"Iligan": "Northern Mindanao", "Iloilo City": "Western Visayas", "Imus": "Calabarzon",
	"Isabela": "Northern Luzon", "Isulan": "Soccsksargen", "Kabankalan": "Negros Occidental",
	"Kidapawan": "Soccsksargen", "Koronadal": "Soccsksargen", "La Carlota": "Negros Occidental",
	"Laoag": "Ilocos Region", "Lapu-Lapu": "Central Visayas", "Las Piñas": "Metro Manila",
	"Laoang": "Bicol", "Legazpi": "Bicol", "Ligao": "Bicol", "Limay": "Central Luzon",
	"Lucena": "Calabarzon", "Maasin": "Eastern Visayas", "Mabalacat": "Central Luzon",
	"Malabon": "Metro Manila", "Malaybalay": "Northern Mindanao", "Malolos": "Central Luzon",
	"Mandaluyong": "Metro Manila", "Mandaue": "Central Visayas", "Manila": "Metro Manila",
	"Marawi": "Bangsamoro", "Marilao": "Central Luzon", "Masbate City": "Bicol",
	"Mati": "Davao Region", "Meycauayan": "Central Luzon", "Muntinlupa": "Metro Manila",
	"Naga (Camarines Sur)": "Bicol", "Navotas": "Metro Manila", "Olongapo": "Central Luzon",
	"Ormoc": "Eastern Visayas", "Oroquieta": "Northern Mindanao", "Ozamiz": "Northern Mindanao",
	"Pagadian": "Zamboanga", "Palo": "Eastern Visayas", "Parañaque": "Metro Manila",
	"Pasay": "Metro Manila", "Pasig": "Metro Manila", "Passi": "Western Visayas",
	"Puerto Princesa": "Mimaropa", "Quezon City": "Metro Manila", "Roxas": "Western Visayas",
	"Sagay": "Negros Occidental", "Samal": "Davao Region", "San Carlos (Negros Occidental)": "Negros Occidental",
	"San Carlos (Pangasinan)": "Northern Luzon", "San Fernando (La Union)": "Ilocos Region",
	"San Fernando (Pampanga)": "Central Luzon", "San Jose (Antique)": "Western Visayas",
	"San Jose del Monte": "Central Luzon", "San Juan": "Metro Manila", "San Pablo": "Calabarzon",
	"San Pedro": "Calabarzon", "Santiago": "Northern Luzon", "Silay": "Negros Occidental",
	"Sipalay": "Negros Occidental", "Sorsogon City": "Bicol", "Surigao City": "Caraga",
	"Tabaco": "Bicol", "Tabuk": "Cordillera", "Tacurong": "Soccsksargen", "Tagaytay": "Calabarzon",
	"Tagbilaran": "Central Visayas", "Taguig": "Metro Manila", "Tacloban": "Eastern Visayas",
	"Talisay (Cebu)": "Central Visayas", "Talisay (Negros Occidental)": "Negros Occidental",
	"Tanjay": "Negros Oriental", "Tarlac City": "Central Luzon", "Tayabas": "Calabarzon",
	"Toledo": "Central Visayas", "Trece Martires": "Calabarzon", "Tuguegarao": "Cagayan Valley",
	"Urdaneta": "Northern Luzon", "Valencia": "Negros Oriental", "Valenzuela": "Central Luzon",
	"Victorias": "Negros Occidental", "Vigan": "Ilocos Region", "Virac": "Bicol",
	"Zamboanga City": "Zamboanga", "Baguio": "Cordillera", "Bohol": "Central Visayas",
	"Coron": "Mimaropa", "El Nido": "Mimaropa", "Makati": "Metro Manila",
	"Palawan": "Mimaropa", "Siargao": "Caraga",
}

// RegionFor maps a city to its region, falling back to "Philippines" for
// cities outside the reference table.
func RegionFor(city string) string {
	if r, ok := regionByCity[strings.TrimSpace(city)]; ok {
		return r
	}
	return "Philippines"
}
