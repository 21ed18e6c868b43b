// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package urlscheme parses danejoe://<host>:<port>/<path>[?k=v(&k=v)*]
// endpoints. net/url already parses arbitrary schemes, so this package is a
// thin wrapper rather than a hand-rolled parser.
package urlscheme

import (
	"net/url"

	"github.com/pkg/errors"
)

// Scheme is the URL scheme this module recognizes.
const Scheme = "danejoe"

// Parsed is a decomposed danejoe:// URL.
type Parsed struct {
	Endpoint string // host:port, dialable with net.Dial("tcp", ...)
	Path     string
	Query    url.Values
}

// Parse decomposes raw into its endpoint, path, and query parameters. It
// returns an error if raw is not a well-formed danejoe:// URL or is missing
// a host.
func Parse(raw string) (Parsed, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Parsed{}, errors.Wrap(err, "urlscheme: parse")
	}
	if u.Scheme != Scheme {
		return Parsed{}, errors.Errorf("urlscheme: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return Parsed{}, errors.New("urlscheme: missing host")
	}
	return Parsed{
		Endpoint: u.Host,
		Path:     u.Path,
		Query:    u.Query(),
	}, nil
}

// String reassembles p back into a danejoe:// URL.
func (p Parsed) String() string {
	u := url.URL{Scheme: Scheme, Host: p.Endpoint, Path: p.Path, RawQuery: p.Query.Encode()}
	return u.String()
}
