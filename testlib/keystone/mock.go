// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package keystone

import (
	"context"

	"github.com/gophercloud/gophercloud/v2"
)

// Keystone api that points every service type to the same url.
type MockKeystoneAPI struct {
	Url string
}

func (m *MockKeystoneAPI) Authenticate(ctx context.Context) error {
	return nil
}

func (m *MockKeystoneAPI) Client() *gophercloud.ProviderClient {
	return &gophercloud.ProviderClient{
		EndpointLocator: func(gophercloud.EndpointOpts) (string, error) {
			return m.Url, nil
		},
	}
}

func (m *MockKeystoneAPI) FindEndpoint(availability, serviceType string) (string, error) {
	return m.Url, nil
}

func (m *MockKeystoneAPI) Availability() string {
	return "public"
}
