package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/DeprecatedLuar/sqldevcfg/internal/connections"
	"github.com/DeprecatedLuar/sqldevcfg/internal/crypto"
	"github.com/DeprecatedLuar/sqldevcfg/internal/errors"
	"github.com/DeprecatedLuar/sqldevcfg/internal/ui"
)

const bundleVersion = 1

// bundle is the sealed export format: connections in plain data form.
type bundle struct {
	Version     int                      `json:"version"`
	Connections []connections.Attributes `json:"connections"`
}

// HandleExport seals connections with a passphrase into a file that can be
// imported on another machine. With no names every connection is exported;
// a name present in several installations is taken from the first.
func HandleExport(rt *Runtime, args []string, passphrase string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: sqldevcfg export <file> [<name|n>...]")
	}
	outputPath := args[0]

	if _, err := os.Stat(outputPath); err == nil {
		return fmt.Errorf("file already exists at %s", outputPath)
	}

	insts, err := rt.loadInstallations()
	if err != nil {
		return err
	}

	var records []*connections.Record
	if len(args) > 1 {
		for _, arg := range args[1:] {
			targets, err := resolveTargets(insts, arg)
			if err != nil {
				return err
			}
			records = append(records, targets[0].record)
		}
	} else {
		for _, inst := range insts {
			if inst.Registry != nil {
				records = append(records, inst.Registry.Records()...)
			}
		}
	}

	b := bundle{Version: bundleVersion, Connections: []connections.Attributes{}}
	seen := make(map[string]bool)
	for _, rec := range records {
		if seen[rec.Name()] {
			rt.Log.Debugf("skipping duplicate %q from %s", rec.Name(), rec.MachineID())
			continue
		}
		seen[rec.Name()] = true

		data, err := rec.Data()
		if err != nil {
			return err
		}
		b.Connections = append(b.Connections, data)
	}

	if passphrase == "" {
		passphrase, err = askNewPassphrase(rt)
		if err != nil {
			return err
		}
	}

	plain, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to encode bundle: %w", err)
	}
	sealed, err := crypto.Seal(plain, passphrase)
	if err != nil {
		return err
	}

	if err := os.WriteFile(outputPath, sealed, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	fmt.Fprintf(rt.stdout(), "Exported %d connections -> %s\n", len(b.Connections), outputPath)
	return nil
}

// HandleImport opens a sealed bundle and adds its connections to every
// installation, re-encrypting passwords for each.
func HandleImport(rt *Runtime, args []string, passphrase string, dryRun bool) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: sqldevcfg import <file>")
	}

	sealed, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	if passphrase == "" {
		passphrase, err = rt.prompter().AskPassword("Passphrase: ")
		if err != nil {
			return fmt.Errorf("failed to read passphrase: %w", err)
		}
	}

	plain, err := crypto.Open(sealed, passphrase)
	if err != nil {
		return err
	}

	var b bundle
	if err := json.Unmarshal(plain, &b); err != nil {
		return fmt.Errorf("%w: invalid bundle %s: %v", errors.ErrSerialization, args[0], err)
	}
	if b.Version != bundleVersion {
		return fmt.Errorf("unsupported bundle version %d", b.Version)
	}

	insts, err := rt.loadInstallations()
	if err != nil {
		return err
	}

	var errs []error
	for _, inst := range insts {
		if inst.Err != nil {
			errs = append(errs, installationError(inst.ConnectionsPath, inst.Err))
			continue
		}
		if err := importInto(rt, inst.Registry, b.Connections, dryRun); err != nil {
			rt.Log.Errorf("%s: %v", inst.ConnectionsPath, err)
			errs = append(errs, installationError(inst.ConnectionsPath, err))
			continue
		}
	}

	for _, data := range b.Connections {
		name, _ := data.Get(connections.KeyName)
		folder, _ := data.Get(connections.KeyFolder)
		user, _ := data.Get(connections.KeyUser)
		host, _ := data.Get(connections.KeyHost)
		fmt.Fprintln(rt.stdout(), "+ "+ui.FormatConnection(0, name, folder, user, host))
	}
	return errors.Join(errs...)
}

func importInto(rt *Runtime, reg *connections.Registry, entries []connections.Attributes, dryRun bool) error {
	for _, data := range entries {
		rec, err := connections.FromData(reg.MachineID(), data)
		if err != nil {
			return err
		}
		if err := reg.Add(rec); err != nil {
			return err
		}
	}
	return rt.commit(reg, "import", dryRun)
}

func askNewPassphrase(rt *Runtime) (string, error) {
	p := rt.prompter()
	first, err := p.AskPassword("Passphrase: ")
	if err != nil {
		return "", fmt.Errorf("failed to read passphrase: %w", err)
	}
	if first == "" {
		return "", fmt.Errorf("passphrase cannot be empty")
	}
	second, err := p.AskPassword("Retype passphrase: ")
	if err != nil {
		return "", fmt.Errorf("failed to read passphrase: %w", err)
	}
	if first != second {
		return "", fmt.Errorf("passphrases do not match")
	}
	return first, nil
}
