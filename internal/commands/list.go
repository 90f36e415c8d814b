package commands

import (
	"github.com/DeprecatedLuar/sqldevcfg/internal/connections"
	"github.com/DeprecatedLuar/sqldevcfg/internal/errors"
	"github.com/DeprecatedLuar/sqldevcfg/internal/presentation"
	"github.com/DeprecatedLuar/sqldevcfg/internal/storage"
)

// HandleList shows every connection of every installation with its password
// decrypted. An installation that fails is reported in its entry and in the
// returned error; the others are still listed.
func HandleList(rt *Runtime) error {
	insts, err := rt.loadInstallations()
	if err != nil {
		return err
	}

	var (
		result []presentation.InstallationDTO
		cached []storage.CachedResult
		errs   []error
	)
	for _, inst := range insts {
		dto, err := describeInstallation(inst)
		if err != nil {
			dto.Error = err.Error()
			errs = append(errs, installationError(inst.ConnectionsPath, err))
		} else {
			for _, rec := range inst.Registry.Records() {
				cached = append(cached, storage.CachedResult{ConnectionsPath: inst.ConnectionsPath, Name: rec.Name()})
			}
		}
		result = append(result, dto)
	}

	rt.cacheListing(cached)
	if err := rt.output(result); err != nil {
		return err
	}
	return errors.Join(errs...)
}

// describeInstallation returns the plain data form of an installation.
func describeInstallation(inst installation) (presentation.InstallationDTO, error) {
	dto := presentation.InstallationDTO{
		ConnectionsPath: inst.ConnectionsPath,
		PreferencesPath: inst.PreferencesPath,
	}
	if inst.Err != nil {
		return dto, inst.Err
	}

	reg := inst.Registry
	dto.DBSystemID = reg.MachineID()
	dto.Folders = reg.FolderIndex()
	dto.Connections = []connections.Attributes{}
	for _, rec := range reg.Records() {
		data, err := rec.Data()
		if err != nil {
			return dto, err
		}
		dto.Connections = append(dto.Connections, data)
	}
	return dto, nil
}
