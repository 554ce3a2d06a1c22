package httpclient

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSaferClient(t *testing.T) {
	client := NewSaferClient(30 * time.Second)

	assert.Equal(t, 30*time.Second, client.Timeout)
	assert.Equal(t, DefaultMaxRedirects, client.maxRedirects)
	assert.True(t, client.blockPrivateIP)
	assert.NotNil(t, client.Transport, "guarded transport should be installed")
}

func TestValidateURL(t *testing.T) {
	client := NewSaferClient(30 * time.Second)

	tests := []struct {
		name        string
		url         string
		errContains string
	}{
		{name: "https ontology", url: "https://www.ebi.ac.uk/efo/efo.owl"},
		{name: "http purl", url: "http://purl.obolibrary.org/obo/mondo.owl"},
		{name: "file scheme", url: "file:///etc/passwd", errContains: "scheme"},
		{name: "ftp scheme", url: "ftp://ftp.example.org/onto.obo", errContains: "scheme"},
		{name: "localhost", url: "http://localhost:8080/", errContains: "localhost"},
		{name: "localhost subdomain", url: "http://api.localhost/", errContains: "localhost"},
		{name: "loopback ip", url: "http://127.0.0.1/", errContains: "private IP"},
		{name: "rfc1918", url: "http://192.168.1.10/registry", errContains: "private IP"},
		{name: "link local metadata", url: "http://169.254.169.254/latest/meta-data", errContains: "private IP"},
		{name: "ipv6 loopback", url: "http://[::1]/", errContains: "private IP"},
		{name: "userinfo confusion", url: "http://example.com@127.0.0.1/", errContains: "userinfo"},
		{name: "missing host", url: "http:///path", errContains: "hostname"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.ValidateURL(tt.url)
			if tt.errContains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestIsPrivateIP(t *testing.T) {
	tests := []struct {
		ip      string
		private bool
	}{
		{"10.1.2.3", true},
		{"172.16.0.1", true},
		{"172.32.0.1", false},
		{"192.168.0.1", true},
		{"100.64.0.1", true},
		{"8.8.8.8", false},
		{"::1", true},
		{"fe80::1", true},
		{"fd00::1", true},
		{"2001:db8::1", true},
		{"2606:4700:4700::1111", false},
		{"::ffff:10.0.0.1", true},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			assert.Equal(t, tt.private, isPrivateIP(net.ParseIP(tt.ip)))
		})
	}
}

func TestSaferClientOptions(t *testing.T) {
	client := NewSaferClientWithOptions(30*time.Second, SaferClientOptions{
		AllowedSchemes: []string{"https"},
		MaxRedirects:   5,
		AllowPrivate:   true,
	})

	assert.Equal(t, []string{"https"}, client.allowedSchemes)
	assert.Equal(t, 5, client.maxRedirects)
	assert.False(t, client.blockPrivateIP)

	_, err := client.ValidateURL("http://example.com")
	assert.Error(t, err, "http should be blocked with an https-only config")

	_, err = client.ValidateURL("https://10.0.0.5/efo.owl")
	assert.NoError(t, err, "private hosts are allowed when configured")
}

func TestRedirectProtection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "file:///etc/passwd", http.StatusFound)
	}))
	defer server.Close()

	client := WrapClient(&http.Client{Timeout: 5 * time.Second})
	client.CheckRedirect = NewSaferClient(5 * time.Second).CheckRedirect

	_, err := client.Get(server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redirect blocked")
}

func TestDoBlocksLocalhost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	}))
	defer server.Close()

	resp, err := WrapClient(server.Client()).Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()

	_, err = NewSaferClient(5 * time.Second).Get(server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SSRF protection")
}
