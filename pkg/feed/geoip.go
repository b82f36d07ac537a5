package feed

import (
	"net"

	"github.com/oschwald/maxminddb-golang"
)

// Resolver maps IP addresses to country names using a MaxMind database.
// cmd/risk-feed uses it to attribute simulated incidents to countries.
type Resolver struct {
	reader *maxminddb.Reader
}

func OpenResolver(path string) (*Resolver, error) {
	reader, err := maxminddb.Open(path)
	if err != nil {
		return nil, err
	}
	return &Resolver{reader: reader}, nil
}

func (r *Resolver) Close() error {
	return r.reader.Close()
}

// CountryName returns the English country name for ip, or "" when the
// address is not in the database.
func (r *Resolver) CountryName(ip net.IP) (string, error) {
	var record struct {
		Country struct {
			Names map[string]string `maxminddb:"names"`
		} `maxminddb:"country"`
	}
	if err := r.reader.Lookup(ip, &record); err != nil {
		return "", err
	}
	return record.Country.Names["en"], nil
}
