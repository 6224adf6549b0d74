package model

// Terminal describes an airport or bus terminal served by AirLink.
// The three-letter codigo follows IATA conventions; ciudad is used for
// fuzzy destination resolution when the client sends a city name instead
// of a code.
//
// Fields:
//  ID     – primary key identifier.
//  Code   – IATA-like three letter code (unique).
//  City   – city served by the terminal.
//  Country – country name.
//  Name   – display name of the terminal.
//  Image  – optional promotional image URL.
//  Type   – terminal type name (aeropuerto, bus, ...).
//  Active – whether the terminal is offered as a destination.
type Terminal struct {
	ID      uint64  // terminal.idTerminal
	Code    string  // terminal.codigo
	City    string  // terminal.ciudad
	Country string  // terminal.pais
	Name    string  // terminal.nombreTerminal
	Image   *string // terminal.imagen (nullable)
	Type    string  // tipo_terminal.nombreTipoTerminal
	Active  bool    // terminal.activo
}
