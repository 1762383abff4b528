package handlers

import (
	"net/url"
	"strings"
)

// URLBuilder renders the public URLs of a link.
type URLBuilder struct {
	baseURL     string
	shortDomain string
}

// NewURLBuilder creates a URL builder. Short links use shortDomain over
// https when it is set and baseURL otherwise. Stats links always use baseURL.
func NewURLBuilder(baseURL, shortDomain string) URLBuilder {
	return URLBuilder{
		baseURL:     strings.TrimRight(baseURL, "/"),
		shortDomain: strings.Trim(shortDomain, "/"),
	}
}

func (b URLBuilder) Short(alias string) string {
	if b.shortDomain != "" {
		return "https://" + b.shortDomain + "/" + alias
	}

	return b.baseURL + "/" + alias
}

func (b URLBuilder) Stats(alias string) string {
	return b.baseURL + "/stats/" + alias
}

// Domain is the host short links are served from.
func (b URLBuilder) Domain() string {
	if b.shortDomain != "" {
		return b.shortDomain
	}

	u, err := url.Parse(b.baseURL)
	if err != nil || u.Host == "" {
		return b.baseURL
	}

	return u.Host
}
