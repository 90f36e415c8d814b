package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/DeprecatedLuar/sqldevcfg/internal/commands/parser"
	"github.com/DeprecatedLuar/sqldevcfg/internal/connections"
	"github.com/DeprecatedLuar/sqldevcfg/internal/errors"
	"github.com/DeprecatedLuar/sqldevcfg/internal/presentation"
)

const defaultConnectionFile = "interactive_connection.json"

// AddOptions selects where new connections come from. Every source is used;
// Interactive replaces them all.
type AddOptions struct {
	Interactive bool
	JSON        []string
	JSONFiles   []string
	Args        []string
	DryRun      bool
}

// HandleAdd adds connections to every installation. An existing connection
// with the same name is replaced, keeping its password and folder when the
// new one has none.
func HandleAdd(rt *Runtime, opts AddOptions) error {
	var (
		entries []connections.Attributes
		err     error
	)

	if opts.Interactive {
		attrs, addNow, err := askConnection(rt)
		if err != nil {
			return err
		}
		if !addNow {
			return nil
		}
		entries = []connections.Attributes{attrs}
	} else {
		entries, err = collectEntries(opts)
		if err != nil {
			return err
		}
	}

	if len(entries) == 0 {
		return fmt.Errorf("usage: sqldevcfg add [--interactive | --json <json> | --json-file <file> | key=value...]")
	}

	insts, err := rt.loadInstallations()
	if err != nil {
		return err
	}

	var (
		result []presentation.InstallationDTO
		errs   []error
	)
	for _, inst := range insts {
		if inst.Err == nil {
			inst.Err = addEntries(rt, inst.Registry, entries, opts.DryRun)
		}
		dto, err := describeInstallation(inst)
		if err != nil {
			dto.Error = err.Error()
			errs = append(errs, installationError(inst.ConnectionsPath, err))
		}
		result = append(result, dto)
	}

	if err := rt.output(result); err != nil {
		return err
	}
	return errors.Join(errs...)
}

func addEntries(rt *Runtime, reg *connections.Registry, entries []connections.Attributes, dryRun bool) error {
	for _, attrs := range entries {
		rec, err := reg.NewRecord(attrs)
		if err != nil {
			return err
		}
		if err := reg.Add(rec); err != nil {
			return err
		}
		rt.Log.Infof("added %q to %s", rec.Name(), reg.Path())
	}
	return rt.commit(reg, "add", dryRun)
}

// collectEntries reads connection attributes from JSON strings, JSON or TOML
// files, and key=value arguments, in that order.
func collectEntries(opts AddOptions) ([]connections.Attributes, error) {
	var entries []connections.Attributes

	for _, doc := range opts.JSON {
		parsed, err := connections.DecodeJSON([]byte(doc))
		if err != nil {
			return nil, fmt.Errorf("invalid --json value: %w", err)
		}
		entries = append(entries, parsed...)
	}

	for _, path := range opts.JSONFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		var parsed []connections.Attributes
		if strings.EqualFold(filepath.Ext(path), ".toml") {
			parsed, err = connections.DecodeTOML(data)
		} else {
			parsed, err = connections.DecodeJSON(data)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		entries = append(entries, parsed...)
	}

	if len(opts.Args) > 0 {
		attrs, err := parser.ParseAttributeArgs(opts.Args)
		if err != nil {
			return nil, err
		}
		entries = append(entries, attrs)
	}

	return entries, nil
}

// askConnection walks through a basic thin-driver connection, then every
// remaining default attribute. It offers to save the answers as a JSON file
// and reports whether to add the connection now.
func askConnection(rt *Runtime) (connections.Attributes, bool, error) {
	p := rt.prompter()

	hostname, err := p.AskDefault("Enter the hostname of the Oracle SQL server", "localhost")
	if err != nil {
		return nil, false, err
	}
	port, err := p.AskDefault("Enter the port", "1521")
	if err != nil {
		return nil, false, err
	}
	username, err := p.AskDefault("Enter the username", "system")
	if err != nil {
		return nil, false, err
	}
	sid, err := p.AskDefault("Enter the SID", "xe")
	if err != nil {
		return nil, false, err
	}
	password, err := p.AskPassword("Password: ")
	if err != nil {
		return nil, false, fmt.Errorf("failed to read password: %w", err)
	}

	attrs := connections.Attributes{
		{Key: "hostname", Value: hostname},
		{Key: connections.KeyHost, Value: fmt.Sprintf("jdbc:oracle:thin:@%s:%s:%s", hostname, port, sid)},
		{Key: "sid", Value: sid},
		{Key: "port", Value: port},
		{Key: connections.KeyUser, Value: username},
		{Key: connections.KeyPlaintextPassword, Value: password},
	}
	if password != "" {
		attrs.Set(connections.KeySavePassword, "true")
	} else {
		attrs.Set(connections.KeySavePassword, "false")
	}

	for _, def := range connections.DefaultAttributes {
		if attrs.Has(def.Key) {
			continue
		}
		value, err := p.AskDefault(fmt.Sprintf("Value for '%s'", def.Key), def.Value)
		if err != nil {
			return nil, false, err
		}
		attrs.Set(def.Key, value)
	}

	save, err := p.AskYesNo("Save connection config to file for future use with --json-file argument?", "y")
	if err != nil {
		return nil, false, err
	}
	if save {
		path, err := p.AskDefault("Enter a file path", defaultConnectionFile)
		if err != nil {
			return nil, false, err
		}
		if err := writeJSONFile(path, attrs); err != nil {
			return nil, false, err
		}
		rt.Log.Infof("saved connection config to %s", path)
	}

	addNow, err := p.AskYesNo("Add connection now?", "y")
	if err != nil {
		return nil, false, err
	}
	return attrs, addNow, nil
}

// writeJSONFile writes v as indented JSON. The file may hold a plaintext
// password, so it is private to the user.
func writeJSONFile(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
