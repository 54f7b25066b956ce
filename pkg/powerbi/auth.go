package powerbi

import (
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"

	"github.com/datakraft/azurekit/pkg/errs"
)

// Credentials holds the Azure AD application credentials for the Power BI
// API. ClientID is always required. The auth flow is selected from the
// optional fields: client secret first, then username/password, then an
// interactive device code flow as the fallback.
type Credentials struct {
	ClientID     string
	ClientSecret string
	TenantID     string
	Username     string
	Password     string
}

func (c Credentials) tenant() string {
	if c.TenantID == "" {
		return "common"
	}
	return c.TenantID
}

func selectCredential(creds Credentials) (azcore.TokenCredential, error) {
	if creds.ClientID == "" {
		return nil, errs.Errorf(errs.KindAuthentication, "powerbi.auth", "client id is required")
	}

	switch {
	case creds.ClientSecret != "":
		cred, err := azidentity.NewClientSecretCredential(creds.tenant(), creds.ClientID, creds.ClientSecret, nil)
		if err != nil {
			return nil, errs.E(errs.KindAuthentication, "powerbi.auth", err)
		}
		return cred, nil
	case creds.Username != "" && creds.Password != "":
		cred, err := azidentity.NewUsernamePasswordCredential(creds.tenant(), creds.ClientID, creds.Username, creds.Password, nil)
		if err != nil {
			return nil, errs.E(errs.KindAuthentication, "powerbi.auth", err)
		}
		return cred, nil
	default:
		cred, err := azidentity.NewDeviceCodeCredential(&azidentity.DeviceCodeCredentialOptions{
			TenantID: creds.tenant(),
			ClientID: creds.ClientID,
		})
		if err != nil {
			return nil, errs.E(errs.KindAuthentication, "powerbi.auth", err)
		}
		return cred, nil
	}
}
