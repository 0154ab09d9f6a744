/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/
package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"bennypowers.dev/grafo/specifier"
)

// HTTPLoader loads http: and https: specifiers over the network.
// Redirects are followed; the final URL becomes the response specifier so
// the builder can record the redirect.
type HTTPLoader struct {
	Client *http.Client
}

// NewHTTPLoader creates an HTTPLoader with the given client.
// A nil client uses http.DefaultClient.
func NewHTTPLoader(client *http.Client) *HTTPLoader {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPLoader{Client: client}
}

// Load fetches the specifier. A 404 is reported as not found; other
// non-success statuses are fetch errors.
func (l *HTTPLoader) Load(ctx context.Context, s *specifier.ModuleSpecifier, isDynamic bool) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.String(), nil)
	if err != nil {
		return nil, &FetchError{URL: s.String(), Message: err.Error()}
	}

	resp, err := l.Client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: s.String(), Message: err.Error()}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{
			URL:        s.String(),
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("HTTP %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: s.String(), Message: err.Error()}
	}

	// resp.Request.URL reflects any redirects the client followed
	effective, err := specifier.Parse(resp.Request.URL.String())
	if err != nil {
		return nil, &FetchError{URL: s.String(), Message: err.Error()}
	}

	headers := make(map[string]string, len(resp.Header))
	for name := range resp.Header {
		headers[name] = resp.Header.Get(name)
	}

	return &Response{
		Specifier: effective,
		Content:   string(body),
		Headers:   headers,
	}, nil
}

// FetchError represents an HTTP fetch error with status information.
type FetchError struct {
	URL        string
	StatusCode int
	Message    string
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch %s: HTTP %d: %s", e.URL, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Message)
}

// IsNotFound returns true if the error represents a 404 Not Found response.
func (e *FetchError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}
