package presentation

import (
	"github.com/DeprecatedLuar/sqldevcfg/internal/connections"
	"github.com/DeprecatedLuar/sqldevcfg/internal/preferences"
)

// PasswordDTO is the result of a single decrypt or encrypt.
type PasswordDTO struct {
	Password string `json:"password" yaml:"password"`
}

// InstallationDTO describes one installation and its connections in plain
// data form. Error is set instead when the installation could not be read.
type InstallationDTO struct {
	ConnectionsPath string                   `json:"connections_path" yaml:"connections_path"`
	PreferencesPath string                   `json:"preferences_path,omitempty" yaml:"preferences_path,omitempty"`
	DBSystemID      string                   `json:"db_system_id,omitempty" yaml:"db_system_id,omitempty"`
	Connections     []connections.Attributes `json:"connections,omitempty" yaml:"connections,omitempty"`
	Folders         preferences.FolderIndex  `json:"folders,omitempty" yaml:"folders,omitempty"`
	Error           string                   `json:"error,omitempty" yaml:"error,omitempty"`
}

// ChangeDTO reports what a mutating command did to one installation.
type ChangeDTO struct {
	ConnectionsPath string   `json:"connections_path" yaml:"connections_path"`
	Changed         []string `json:"changed" yaml:"changed"`
	DryRun          bool     `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
	Error           string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// InfoDTO is the diagnostic view of one installation.
type InfoDTO struct {
	ConnectionsPath string `json:"connections_path" yaml:"connections_path"`
	PreferencesPath string `json:"preferences_path,omitempty" yaml:"preferences_path,omitempty"`
	DBSystemID      string `json:"db_system_id,omitempty" yaml:"db_system_id,omitempty"`
	IDIsUUID        bool   `json:"db_system_id_is_uuid" yaml:"db_system_id_is_uuid"`
	Connections     int    `json:"connections" yaml:"connections"`
	SavedPasswords  int    `json:"saved_passwords" yaml:"saved_passwords"`
	Folders         int    `json:"folders" yaml:"folders"`
	Error           string `json:"error,omitempty" yaml:"error,omitempty"`
}
