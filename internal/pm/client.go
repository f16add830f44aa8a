package pm

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/nyxlang/nyxc/internal/manifest"
)

// Client is the HTTP dependency server client of spec §6 "Dependency
// server": GET /download/{name}[?version=v] returns an archive, GET
// /checksum/{name}?version=v returns the expected hex digest. Any
// non-200 response is fatal, per spec §6.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{BaseURL: baseURL, HTTP: http.DefaultClient}
}

func (c *Client) get(path string, query url.Values) (*http.Response, error) {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	resp, err := c.HTTP.Get(u)
	if err != nil {
		return nil, fmt.Errorf("pm: request to %s failed: %w", u, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("pm: %s returned status %d, which is fatal per the dependency-server contract", u, resp.StatusCode)
	}
	return resp, nil
}

// Download fetches a package's archive bytes.
func (c *Client) Download(name string, version manifest.Version, hasVersion bool) ([]byte, error) {
	q := url.Values{}
	if hasVersion {
		q.Set("version", version.String())
	}
	resp, err := c.get("/download/"+name, q)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Checksum fetches the expected hex digest of a package's archive.
func (c *Client) Checksum(name string, version manifest.Version) (string, error) {
	q := url.Values{"version": []string{version.String()}}
	resp, err := c.get("/checksum/"+name, q)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(bytes.TrimSpace(b)), nil
}

// Manifest implements Source by downloading the archive and reading
// its embedded manifest file. Archive layout is spec §6's "a zip whose
// top-level directory equals the package name; contains
// nemesis.manifest, src/, cpp/".
func (c *Client) Manifest(name string, version manifest.Version, hasVersion bool) (*manifest.Manifest, error) {
	archive, err := c.Download(name, version, hasVersion)
	if err != nil {
		return nil, err
	}
	return ManifestFromArchive(name, archive)
}
