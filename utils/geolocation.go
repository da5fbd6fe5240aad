package utils

import (
	"net"
	"strings"
	"sync"

	"github.com/oschwald/geoip2-golang"
	"github.com/pariz/gountries"
	"github.com/pkg/errors"
)

// UnknownRegion is reported for addresses the database cannot place.
const UnknownRegion = "Unknown"

type GeoLocation struct {
	CountryCode string
	Country     string
	City        string
	Lat         float64
	Lon         float64
}

// GeoResolver places node IPs using a local MaxMind database. Without a
// database every lookup misses; it never calls out to a lookup service.
type GeoResolver struct {
	db *geoip2.Reader
}

func NewGeoResolver(dbPath string) (*GeoResolver, error) {
	if dbPath == "" {
		return &GeoResolver{}, nil
	}

	db, err := geoip2.Open(dbPath)
	if err != nil {
		return &GeoResolver{}, errors.Wrapf(err, "failed to open GeoIP database %s", dbPath)
	}
	return &GeoResolver{db: db}, nil
}

// Enabled reports whether a database is loaded.
func (g *GeoResolver) Enabled() bool {
	return g != nil && g.db != nil
}

func (g *GeoResolver) Close() {
	if g.Enabled() {
		g.db.Close()
	}
}

// Lookup returns the location of ipStr, or false when it cannot be placed.
func (g *GeoResolver) Lookup(ipStr string) (GeoLocation, bool) {
	if !g.Enabled() {
		return GeoLocation{}, false
	}

	ip := net.ParseIP(ipStr)
	if ip == nil {
		return GeoLocation{}, false
	}

	record, err := g.db.City(ip)
	if err != nil || record.Country.IsoCode == "" {
		return GeoLocation{}, false
	}

	return GeoLocation{
		CountryCode: record.Country.IsoCode,
		Country:     record.Country.Names["en"],
		City:        record.City.Names["en"],
		Lat:         record.Location.Latitude,
		Lon:         record.Location.Longitude,
	}, true
}

// Region returns the country name for ipStr or UnknownRegion.
func (g *GeoResolver) Region(ipStr string) string {
	loc, ok := g.Lookup(ipStr)
	if !ok {
		return UnknownRegion
	}
	if name := CountryName(loc.CountryCode); name != "" {
		return name
	}
	if loc.Country != "" {
		return loc.Country
	}
	return UnknownRegion
}

var (
	countriesOnce sync.Once
	countries     *gountries.Query
)

// CountryName maps an ISO alpha-2 or alpha-3 code to its common English name,
// or "" when the code is unknown.
func CountryName(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}

	countriesOnce.Do(func() {
		countries = gountries.New()
	})

	country, err := countries.FindCountryByAlpha(code)
	if err != nil {
		return ""
	}
	return country.Name.Common
}
