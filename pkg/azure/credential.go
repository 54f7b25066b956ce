// Package azure holds the credential plumbing shared by the service
// clients.
package azure

import (
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

// DefaultCredential resolves a token credential from the environment,
// managed identity, or the Azure CLI, in that order.
func DefaultCredential() (azcore.TokenCredential, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("building default azure credential: %w", err)
	}
	return cred, nil
}
