package httpx

import "net/http"

// Client abstracts the HTTP transport so adapters can be tested without a
// network.
type Client interface {
	Do(req *http.Request) (*http.Response, error)
}
