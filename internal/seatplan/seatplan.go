// Package seatplan generates default cabin layouts for trips whose seats have
// not been provisioned yet, and annotates persisted seats with their seat
// type, extra charge and characteristics. The layout rules mirror the
// commercial configuration AirLink sells: premium rows up front, a comfort
// band, emergency-exit and first-row seats with extra legroom, standard
// seating elsewhere.
package seatplan

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"strconv"
)

// Seat type names as exposed to clients.
const (
	TypePremium   = "premium"
	TypeComfort   = "confort"
	TypeExitRow   = "salidaEmergencia"
	TypeFrontRow  = "primeraFila"
	TypeStandard  = "estandar"
)

// Extra charges per seat type in whole CLP.
var extraCharge = map[string]int64{
	TypePremium:  25000,
	TypeComfort:  15000,
	TypeExitRow:  12000,
	TypeFrontRow: 10000,
	TypeStandard: 8000,
}

// PlannedSeat is one seat of a generated layout.
type PlannedSeat struct {
	Number       string   // e.g. "12C"
	Row          int      // 1-based row
	Letter       string   // A..F
	Premium      bool     // true for premium-cabin rows
	Type         string   // one of the Type* constants
	ExtraCharge  int64    // surcharge for choosing this seat
	Traits       []string // human-readable characteristics
}

// Plan describes a cabin shape. The zero value is not useful; use Default.
type Plan struct {
	Rows    int
	Letters string
}

// Default is the single-aisle layout applied when a trip has no seats yet:
// 30 rows of 6 (A–F), 180 seats.
var Default = Plan{Rows: 30, Letters: "ABCDEF"}

// Layout produces the full seat list for the plan, ordered row by row and
// letter by letter. Regenerating the same plan yields the same seats, which
// is what makes lazy generation idempotent at the application level.
func (p Plan) Layout() []PlannedSeat {
	seats := make([]PlannedSeat, 0, p.Rows*len(p.Letters))
	for row := 1; row <= p.Rows; row++ {
		for _, l := range p.Letters {
			letter := string(l)
			typ := seatType(row)
			seats = append(seats, PlannedSeat{
				Number:      strconv.Itoa(row) + letter,
				Row:         row,
				Letter:      letter,
				Premium:     row <= 3,
				Type:        typ,
				ExtraCharge: extraCharge[typ],
				Traits:      traits(row, letter),
			})
		}
	}
	return seats
}

// seatType classifies a row into its commercial band.
func seatType(row int) string {
	switch {
	case row <= 3:
		return TypePremium
	case row <= 7:
		return TypeComfort
	case row == 8:
		return TypeFrontRow
	case row == 10 || row == 20:
		return TypeExitRow
	default:
		return TypeStandard
	}
}

// traits lists the characteristics shown on the seat map for a position.
func traits(row int, letter string) []string {
	var out []string
	switch seatType(row) {
	case TypePremium:
		out = append(out, "Primera Clase", "Espacio Extra", "Servicio Premium")
	case TypeComfort:
		out = append(out, "Confort+", "Más Espacio")
	case TypeExitRow:
		out = append(out, "Salida de Emergencia", "Espacio Extra para Piernas")
	case TypeFrontRow:
		out = append(out, "Primera Fila", "Sin asiento adelante")
	}
	switch letter {
	case "A", "F":
		out = append(out, "Ventana")
	case "C", "D":
		out = append(out, "Pasillo")
	default:
		out = append(out, "Centro")
	}
	return out
}

// Describe parses a seat number like "12C" into row and letter. ok is false
// for malformed numbers.
func Describe(number string) (row int, letter string, ok bool) {
	if len(number) < 2 {
		return 0, "", false
	}
	letter = number[len(number)-1:]
	if letter < "A" || letter > "F" {
		return 0, "", false
	}
	row, err := strconv.Atoi(number[:len(number)-1])
	if err != nil || row < 1 {
		return 0, "", false
	}
	return row, letter, true
}

// Annotate returns the seat type, extra charge and traits for a persisted
// seat number. Malformed numbers fall back to standard seating so a single
// odd row never breaks the whole seat map.
func Annotate(number string) (typ string, charge int64, tr []string) {
	row, letter, ok := Describe(number)
	if !ok {
		return TypeStandard, extraCharge[TypeStandard], []string{"Centro"}
	}
	typ = seatType(row)
	return typ, extraCharge[typ], traits(row, letter)
}

// MockSeat is a generated, never-persisted seat for demo trips.
type MockSeat struct {
	ID        string   `json:"idAsiento"`
	Number    string   `json:"numero"`
	Available int      `json:"disponible"`
	Cabin     string   `json:"clase"`
	CabinID   uint64   `json:"idCabinaClase"`
	Type      string   `json:"tipo"`
	Price     int64    `json:"precio"`
	Traits    []string `json:"caracteristicas"`
	Row       int      `json:"fila"`
	Letter    string   `json:"letra"`
}

// Mock generates the seat map for a synthetic trip id (prefix "mock-").
// Availability is pseudo-random (roughly 70% free) but seeded from the id,
// so repeated calls for the same mock trip return the same layout. Storage
// is never touched.
func Mock(mockID string) []MockSeat {
	h := fnv.New64a()
	_, _ = h.Write([]byte(mockID))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	plan := Default.Layout()
	seats := make([]MockSeat, 0, len(plan))
	for _, s := range plan {
		available := 0
		if rng.Float64() > 0.3 {
			available = 1
		}
		cabin, cabinID := "Economy", uint64(2)
		if s.Premium {
			cabin, cabinID = "Premium", 1
		}
		seats = append(seats, MockSeat{
			ID:        fmt.Sprintf("mock-%s", s.Number),
			Number:    s.Number,
			Available: available,
			Cabin:     cabin,
			CabinID:   cabinID,
			Type:      s.Type,
			Price:     s.ExtraCharge,
			Traits:    s.Traits,
			Row:       s.Row,
			Letter:    s.Letter,
		})
	}
	return seats
}
