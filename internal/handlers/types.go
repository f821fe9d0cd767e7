package handlers

import "net/http"

// CreateShortURLRequest is the body of POST /shorten.
type CreateShortURLRequest struct {
	Body struct {
		URL string `doc:"The URL to shorten" example:"https://example.com/very/long/path" json:"url" maxLength:"4096"`
	}
}

// CreateShortURLResponse describes the record a URL is now reachable through.
type CreateShortURLResponse struct {
	Headers struct {
		Location string `doc:"The short URL" header:"Location"`
	}
	Body struct {
		Code        string `doc:"The short code"            example:"dNXkWns"                          json:"code"`
		ShortURL    string `doc:"The full short URL"        example:"http://localhost:8888/dNXkWns"    json:"shortUrl"`
		OriginalURL string `doc:"The normalized target URL" example:"https://example.com/very/long/path" json:"originalUrl"`
	}
}

// RedirectRequest is the input of GET /{code}.
type RedirectRequest struct {
	Code string `doc:"The short code" example:"dNXkWns" path:"code"`
}

// RedirectResponse sends the client on to the original URL.
type RedirectResponse struct {
	Status  int
	Headers struct {
		Location string `header:"Location"`
	}
}

const redirectStatus = http.StatusFound
