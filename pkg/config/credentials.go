package config

// Typed views over the well-known configuration keys.

type AzureCredentials struct {
	SubscriptionID string `json:"subscription_id"`
	TenantID       string `json:"tenant_id"`
	ClientID       string `json:"client_id"`
	ClientSecret   string `json:"client_secret"`
}

func (m *Manager) AzureCredentials() (AzureCredentials, error) {
	sub, err := m.Require(AzureSubscriptionID)
	if err != nil {
		return AzureCredentials{}, err
	}
	tenant, err := m.Require(AzureTenantID)
	if err != nil {
		return AzureCredentials{}, err
	}
	return AzureCredentials{
		SubscriptionID: sub,
		TenantID:       tenant,
		ClientID:       m.GetString(AzureClientID),
		ClientSecret:   m.GetString(AzureClientSecret),
	}, nil
}

// StorageAccountURL returns the blob endpoint for the given account,
// falling back to the configured account name.
func (m *Manager) StorageAccountURL(account string) (string, error) {
	return m.accountURL(account, "blob")
}

// DataLakeAccountURL returns the Data Lake Gen2 (dfs) endpoint.
func (m *Manager) DataLakeAccountURL(account string) (string, error) {
	return m.accountURL(account, "dfs")
}

func (m *Manager) accountURL(account, service string) (string, error) {
	if account == "" {
		var err error
		account, err = m.Require(AzureStorageAccountName)
		if err != nil {
			return "", err
		}
	}
	return "https://" + account + "." + service + ".core.windows.net", nil
}

type SQLConnectionParams struct {
	Server   string `json:"server"`
	Database string `json:"database"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (m *Manager) SQLConnectionParams() (SQLConnectionParams, error) {
	server, err := m.Require(AzureSQLServer)
	if err != nil {
		return SQLConnectionParams{}, err
	}
	database, err := m.Require(AzureSQLDatabase)
	if err != nil {
		return SQLConnectionParams{}, err
	}
	return SQLConnectionParams{
		Server:   server,
		Database: database,
		Username: m.GetString(AzureSQLUsername),
		Password: m.GetString(AzureSQLPassword),
	}, nil
}

type PowerBICredentials struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	TenantID     string `json:"tenant_id"`
	Username     string `json:"username"`
	Password     string `json:"password"`
}

func (m *Manager) PowerBICredentials() (PowerBICredentials, error) {
	clientID, err := m.Require(PowerBIClientID)
	if err != nil {
		return PowerBICredentials{}, err
	}
	return PowerBICredentials{
		ClientID:     clientID,
		ClientSecret: m.GetString(PowerBIClientSecret),
		TenantID:     m.GetString(PowerBITenantID),
		Username:     m.GetString(PowerBIUsername),
		Password:     m.GetString(PowerBIPassword),
	}, nil
}
