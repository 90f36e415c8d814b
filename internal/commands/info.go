package commands

import (
	"github.com/google/uuid"

	"github.com/DeprecatedLuar/sqldevcfg/internal/errors"
	"github.com/DeprecatedLuar/sqldevcfg/internal/presentation"
)

// HandleInfo reports every installation: its paired files, its identifier
// and whether that looks like the UUID SQL Developer generates, and counts of
// connections, saved passwords and folders.
func HandleInfo(rt *Runtime) error {
	insts, err := rt.loadInstallations()
	if err != nil {
		return err
	}

	var (
		result []presentation.InfoDTO
		errs   []error
	)
	for _, inst := range insts {
		dto := presentation.InfoDTO{
			ConnectionsPath: inst.ConnectionsPath,
			PreferencesPath: inst.PreferencesPath,
			Error:           errorString(inst.Err),
		}
		if inst.Err != nil {
			errs = append(errs, installationError(inst.ConnectionsPath, inst.Err))
			result = append(result, dto)
			continue
		}

		reg := inst.Registry
		dto.DBSystemID = reg.MachineID()
		if _, err := uuid.Parse(dto.DBSystemID); err == nil {
			dto.IDIsUUID = true
		} else {
			rt.Log.Warnf("db.system.id %q in %s is not a UUID", dto.DBSystemID, inst.PreferencesPath)
		}

		dto.Connections = reg.Len()
		for _, rec := range reg.Records() {
			if rec.SavePassword() && rec.HasPassword() {
				dto.SavedPasswords++
			}
		}
		dto.Folders = len(reg.FolderIndex())
		result = append(result, dto)
	}

	if err := rt.output(result); err != nil {
		return err
	}
	return errors.Join(errs...)
}
