// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package keystone

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cobaltcore-dev/cortex-harvest/internal/conf"
)

func setupKeystoneMockServer(handler http.HandlerFunc) (*httptest.Server, conf.KeystoneConfig) {
	server := httptest.NewServer(handler)
	conf := conf.KeystoneConfig{
		URL:                 server.URL + "/v3",
		Availability:        "public",
		OSUsername:          "testuser",
		OSUserDomainName:    "default",
		OSPassword:          "password",
		OSProjectName:       "testproject",
		OSProjectDomainName: "default",
	}
	return server, conf
}

func TestNewKeystoneAPI(t *testing.T) {
	api := NewKeystoneAPI(conf.KeystoneConfig{URL: "http://example.com/v3", Availability: "internal"})
	if api == nil {
		t.Fatal("expected non-nil api")
	}
	if api.Availability() != "internal" {
		t.Errorf("expected availability internal, got %s", api.Availability())
	}
	if _, err := api.FindEndpoint("internal", "compute"); err == nil {
		t.Error("expected error when looking up endpoints before authentication")
	}
}

func TestKeystoneAPI_Authenticate(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Content-Type", "application/json")
		w.Header().Add("X-Subject-Token", "token")
		w.WriteHeader(http.StatusCreated)
		catalog := `{"token": {"catalog": [{
			"type": "compute",
			"name": "nova",
			"endpoints": [{"interface": "public", "region": "region", "url": "http://nova.example.com/v2.1"}]
		}]}}`
		if _, err := w.Write([]byte(catalog)); err != nil {
			t.Errorf("error writing response: %v", err)
		}
	}
	server, keystoneConf := setupKeystoneMockServer(handler)
	defer server.Close()

	api := NewKeystoneAPIWithHTTPClient(keystoneConf, server.Client()).(*keystoneAPI)

	if err := api.Authenticate(t.Context()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if api.Client() == nil {
		t.Fatal("expected non-nil client after authentication")
	}
	url, err := api.FindEndpoint("public", "compute")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if url != "http://nova.example.com/v2.1/" {
		t.Errorf("unexpected compute endpoint %s", url)
	}
}

func TestKeystoneAPI_AuthenticateFailure(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}
	server, keystoneConf := setupKeystoneMockServer(handler)
	defer server.Close()

	api := NewKeystoneAPI(keystoneConf)
	if err := api.Authenticate(t.Context()); err == nil {
		t.Fatal("expected error for rejected credentials")
	}
}
