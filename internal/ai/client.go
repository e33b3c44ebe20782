package ai

import (
	"net/http"
	"net/url"
)

// NewHTTPClient creates an HTTP client, optionally configured with a proxy
// and a bearer token.
func NewHTTPClient(proxyAddr, token string) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if proxyAddr != "" {
		proxyURL, err := url.Parse(proxyAddr)
		if err != nil {
			return nil, err
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	client := &http.Client{
		Transport: transport,
	}

	if token != "" {
		client.Transport = &authTransport{
			token:     token,
			transport: transport,
		}
	}

	return client, nil
}

// authTransport adds the Authorization header to requests.
type authTransport struct {
	token     string
	transport http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+t.token)
	return t.transport.RoundTrip(req)
}
