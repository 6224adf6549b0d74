package lookup

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"sort"
	"strings"
	"time"
)

// BusCompany is an interregional bus operator.
type BusCompany struct {
	Name  string `json:"nombre"`
	Logo  string `json:"logo"`
	Color string `json:"color"`
}

// BusTerminal is a ground terminal served by the interregional network.
type BusTerminal struct {
	Code    string  `json:"codigo"`
	Name    string  `json:"nombreTerminal"`
	City    string  `json:"ciudad"`
	Address string  `json:"direccion"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Type    string  `json:"tipoTerminal"`
}

// BusTrip is one scheduled departure between two terminals on a date.
type BusTrip struct {
	ID          string `json:"idViaje"`
	Company     string `json:"empresa"`
	Logo        string `json:"logo"`
	OriginCode  string `json:"origenCodigo"`
	Origin      string `json:"origen"`
	OriginCity  string `json:"ciudadOrigen"`
	DestCode    string `json:"destinoCodigo"`
	Dest        string `json:"destino"`
	DestCity    string `json:"ciudadDestino"`
	Date        string `json:"fecha"`
	Departure   string `json:"horaSalida"`
	Arrival     string `json:"horaLlegada"`
	DurationMin int    `json:"duracionMin"`
	Price       int64  `json:"precio"`
	SeatsLeft   int    `json:"cupos"`
	DistanceKm  int    `json:"distanciaKm"`
}

// BusConnection is a route reachable from a city, with the companies that
// run it.
type BusConnection struct {
	DestCity    string   `json:"ciudadDestino"`
	DurationMin int      `json:"duracionMin"`
	DistanceKm  int      `json:"distanciaKm"`
	Companies   []string `json:"empresas"`
}

// busRoute is one direction of an interregional corridor.
type busRoute struct {
	origin    string
	dest      string
	duration  int
	distance  int
	companies []string
}

// BusCatalog answers ground-transport availability from a static network of
// Chilean interregional corridors. Departures are generated per date; seat
// counts are seeded from the trip identity so repeated queries agree.
type BusCatalog struct {
	companies map[string]BusCompany
	terminals map[string]BusTerminal
	routes    []busRoute
	schedules map[string][]string
}

// NewBusCatalog builds the static network.
func NewBusCatalog() *BusCatalog {
	return &BusCatalog{
		companies: busCompanies,
		terminals: busTerminals,
		routes:    busRoutes,
		schedules: busSchedules,
	}
}

var busCompanies = map[string]BusCompany{
	"TURBUS":       {Name: "Turbus", Logo: "https://www.turbus.cl/images/logo.png", Color: "#16a34a"},
	"PULLMAN":      {Name: "Pullman Bus", Logo: "https://www.pullman.cl/images/logo.png", Color: "#1e40af"},
	"CONDOR":       {Name: "Condor Bus", Logo: "https://www.condorbus.cl/images/logo.png", Color: "#7c3aed"},
	"CRUZ_DEL_SUR": {Name: "Cruz del Sur", Logo: "https://www.cruzdelsur.cl/images/logo.png", Color: "#eab308"},
	"JAC":          {Name: "JAC", Logo: "https://www.jac.cl/images/logo.png", Color: "#16a34a"},
}

var busTerminals = map[string]BusTerminal{
	"Santiago": {
		Code: "SCL-BUS", Name: "Terminal de Buses Santiago", City: "Santiago",
		Address: "Av. Libertador Bernardo O'Higgins 3850",
		Lat:     -33.4569, Lon: -70.6826, Type: "principal",
	},
	"Valparaíso": {
		Code: "VLP-BUS", Name: "Terminal Rodoviario Valparaíso", City: "Valparaíso",
		Address: "Av. Pedro Montt 2800",
		Lat:     -33.0458, Lon: -71.6197, Type: "principal",
	},
	"Antofagasta": {
		Code: "ANF-BUS", Name: "Terminal de Buses Antofagasta", City: "Antofagasta",
		Address: "Av. Pedro Aguirre Cerda 5750",
		Lat:     -23.6509, Lon: -70.3975, Type: "principal",
	},
	"La Serena": {
		Code: "LSC-BUS", Name: "Terminal de Buses La Serena", City: "La Serena",
		Address: "Av. El Santo 1300",
		Lat:     -29.9078, Lon: -71.2540, Type: "principal",
	},
	"Concepción": {
		Code: "CCP-BUS", Name: "Terminal Collao Concepción", City: "Concepción",
		Address: "Av. General Bonilla 312",
		Lat:     -36.8143, Lon: -73.0245, Type: "principal",
	},
	"Temuco": {
		Code: "ZCO-BUS", Name: "Terminal Rodoviario Temuco", City: "Temuco",
		Address: "Av. Pérez Rosales 1609",
		Lat:     -38.7320, Lon: -72.5986, Type: "principal",
	},
	"Puerto Montt": {
		Code: "PMC-BUS", Name: "Terminal de Buses Puerto Montt", City: "Puerto Montt",
		Address: "Av. Diego Portales 1001",
		Lat:     -41.4717, Lon: -72.9396, Type: "principal",
	},
}

var busRoutes = []busRoute{
	{"Santiago", "Valparaíso", 105, 115, []string{"TURBUS", "PULLMAN", "CONDOR"}},
	{"Valparaíso", "Santiago", 105, 115, []string{"TURBUS", "PULLMAN", "CONDOR"}},
	{"Santiago", "La Serena", 360, 470, []string{"TURBUS", "PULLMAN"}},
	{"La Serena", "Santiago", 360, 470, []string{"TURBUS", "PULLMAN"}},
	{"Santiago", "Concepción", 390, 500, []string{"TURBUS", "PULLMAN", "CONDOR"}},
	{"Concepción", "Santiago", 390, 500, []string{"TURBUS", "PULLMAN", "CONDOR"}},
	{"Santiago", "Temuco", 540, 670, []string{"TURBUS", "JAC"}},
	{"Temuco", "Santiago", 540, 670, []string{"TURBUS", "JAC"}},
	{"Santiago", "Puerto Montt", 720, 1020, []string{"TURBUS", "CRUZ_DEL_SUR"}},
	{"Puerto Montt", "Santiago", 720, 1020, []string{"TURBUS", "CRUZ_DEL_SUR"}},
	{"Antofagasta", "Santiago", 1320, 1370, []string{"TURBUS", "PULLMAN"}},
	{"Santiago", "Antofagasta", 1320, 1370, []string{"TURBUS", "PULLMAN"}},
	{"Temuco", "Puerto Montt", 300, 350, []string{"TURBUS", "CRUZ_DEL_SUR"}},
	{"Puerto Montt", "Temuco", 300, 350, []string{"TURBUS", "CRUZ_DEL_SUR"}},
}

var busSchedules = map[string][]string{
	"Santiago-Valparaíso": {"07:00", "08:30", "10:00", "12:00", "14:30", "16:00", "18:00", "20:00"},
	"Santiago-La Serena":  {"08:00", "10:00", "13:00", "16:00", "20:00", "22:00"},
	"Santiago-Concepción": {"07:00", "09:00", "11:00", "14:00", "17:00", "20:00", "22:30"},
	"Santiago-Temuco":     {"08:00", "11:00", "14:00", "18:00", "21:00", "23:00"},
}

var busDefaultSchedule = []string{"08:00", "12:00", "16:00", "20:00"}

// busFare estimates the adult fare from the distance: short hops cost more
// per kilometre than long hauls.
func busFare(distanceKm int) int64 {
	switch {
	case distanceKm < 150:
		return int64(distanceKm) * 80
	case distanceKm <= 500:
		return int64(distanceKm) * 70
	default:
		return int64(distanceKm) * 60
	}
}

// Terminals lists the network's terminals ordered by city, optionally
// filtered by terminal type.
func (c *BusCatalog) Terminals(tipo string) []BusTerminal {
	out := make([]BusTerminal, 0, len(c.terminals))
	for _, t := range c.terminals {
		if tipo != "" && t.Type != tipo {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].City < out[j].City })
	return out
}

// Connections lists the corridors departing a city, matched
// case-insensitively.
func (c *BusCatalog) Connections(city string) []BusConnection {
	want := strings.ToLower(strings.TrimSpace(city))
	var out []BusConnection
	for _, r := range c.routes {
		if strings.ToLower(r.origin) != want {
			continue
		}
		names := make([]string, 0, len(r.companies))
		for _, key := range r.companies {
			names = append(names, c.companies[key].Name)
		}
		out = append(out, BusConnection{
			DestCity:    r.dest,
			DurationMin: r.duration,
			DistanceKm:  r.distance,
			Companies:   names,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DestCity < out[j].DestCity })
	return out
}

// Available generates the departures between two cities on a date
// (YYYY-MM-DD), ordered by departure time then company. An unknown corridor
// yields an empty slice.
func (c *BusCatalog) Available(origin, dest, date string) ([]BusTrip, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, fmt.Errorf("buses: invalid date %q", date)
	}
	var route *busRoute
	wantO := strings.ToLower(strings.TrimSpace(origin))
	wantD := strings.ToLower(strings.TrimSpace(dest))
	for i := range c.routes {
		if strings.ToLower(c.routes[i].origin) == wantO && strings.ToLower(c.routes[i].dest) == wantD {
			route = &c.routes[i]
			break
		}
	}
	if route == nil {
		return nil, nil
	}

	times, ok := c.schedules[route.origin+"-"+route.dest]
	if !ok {
		times = busDefaultSchedule
	}
	from := c.terminals[route.origin]
	to := c.terminals[route.dest]

	var trips []BusTrip
	for _, key := range route.companies {
		company := c.companies[key]
		for i, depart := range times {
			hhmm, err := time.Parse("15:04", depart)
			if err != nil {
				continue
			}
			departure := time.Date(day.Year(), day.Month(), day.Day(),
				hhmm.Hour(), hhmm.Minute(), 0, 0, time.UTC)
			arrival := departure.Add(time.Duration(route.duration) * time.Minute)
			id := fmt.Sprintf("BUS-%s-%s-%s-%s-%d", key, from.Code, to.Code, date, i)
			trips = append(trips, BusTrip{
				ID:          id,
				Company:     company.Name,
				Logo:        company.Logo,
				OriginCode:  from.Code,
				Origin:      from.Name,
				OriginCity:  from.City,
				DestCode:    to.Code,
				Dest:        to.Name,
				DestCity:    to.City,
				Date:        date,
				Departure:   depart,
				Arrival:     arrival.Format("15:04"),
				DurationMin: route.duration,
				Price:       busFare(route.distance),
				SeatsLeft:   busSeatsLeft(id),
				DistanceKm:  route.distance,
			})
		}
	}
	sort.SliceStable(trips, func(i, j int) bool {
		if trips[i].Departure != trips[j].Departure {
			return trips[i].Departure < trips[j].Departure
		}
		return trips[i].Company < trips[j].Company
	})
	return trips, nil
}

// busSeatsLeft fakes remaining capacity in the 10..40 range, seeded from the
// trip id so the same departure always reports the same count.
func busSeatsLeft(id string) int {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))
	return rng.Intn(31) + 10
}
