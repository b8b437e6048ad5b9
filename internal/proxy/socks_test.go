package proxy

import (
	"net/http"
	"testing"
)

func TestNewClientDirect(t *testing.T) {
	c, err := NewClient("")
	if err != nil {
		t.Fatal(err)
	}
	if c.Transport != nil {
		t.Errorf("direct client has custom transport %T", c.Transport)
	}
	if c.Timeout != DefaultTimeout {
		t.Errorf("timeout = %s", c.Timeout)
	}
}

func TestNewClientSocks(t *testing.T) {
	c, err := NewClient("127.0.0.1:1080")
	if err != nil {
		t.Fatal(err)
	}
	tr, ok := c.Transport.(*http.Transport)
	if !ok || tr.DialContext == nil {
		t.Fatalf("transport = %#v", c.Transport)
	}
}

func TestSetDefault(t *testing.T) {
	prev := http.DefaultTransport
	t.Cleanup(func() { http.DefaultTransport = prev })

	direct, _ := NewClient("")
	SetDefault(direct)
	if http.DefaultTransport != prev {
		t.Error("direct client replaced the default transport")
	}

	socks, err := NewClient("127.0.0.1:1080")
	if err != nil {
		t.Fatal(err)
	}
	SetDefault(socks)
	if http.DefaultTransport != socks.Transport {
		t.Error("default transport not routed through the proxy")
	}
}
