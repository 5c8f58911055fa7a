package models

import "provisioning-portal/internal/catalog"

// SelectionRequest represents the API selection payload
type SelectionRequest struct {
	Systems []string `json:"systems"`
	Version string   `json:"version"`
}

// ActionResponse represents the API response to a provision or deprovision request
type ActionResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message,omitempty"`
	Error       string `json:"error,omitempty"`
	OperationID string `json:"operationId,omitempty"`
}

// CatalogResponse represents the selectable systems and versions
type CatalogResponse struct {
	Systems  []catalog.System  `json:"systems"`
	Versions []catalog.Version `json:"versions"`
}

// StateResponse represents the selection and operation status
type StateResponse struct {
	SelectedSystems  []string `json:"selectedSystems"`
	SelectedVersion  string   `json:"selectedVersion"`
	State            string   `json:"state"`
	Operation        string   `json:"operation,omitempty"`
	OperationID      string   `json:"operationId,omitempty"`
	IsProvisioning   bool     `json:"isProvisioning"`
	IsDeprovisioning bool     `json:"isDeprovisioning"`
	Error            string   `json:"error,omitempty"`
	Success          bool     `json:"success"`
}
