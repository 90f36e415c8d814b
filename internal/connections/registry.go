// Package connections models SQL Developer's connections.xml: an ordered set of
// connection records whose passwords are encrypted with the machine identifier
// from the paired preferences file.
package connections

import (
	"fmt"

	"github.com/beevik/etree"

	"github.com/DeprecatedLuar/sqldevcfg/internal/errors"
	"github.com/DeprecatedLuar/sqldevcfg/internal/preferences"
	"github.com/DeprecatedLuar/sqldevcfg/internal/storage"
)

// FileName is the connections file name inside an o.jdeveloper.db.connection* directory.
const FileName = "connections.xml"

const referencesNamespace = "http://xmlns.oracle.com/adf/jndi"

// Registry is the loaded set of connections of one installation together with
// its preferences store.
type Registry struct {
	path          string
	prefs         *preferences.Store
	machineID     string
	records       []*Record
	loadedFolders []string
}

// Open loads the preferences file and then the connections file of one installation.
func Open(connectionsPath, preferencesPath string) (*Registry, error) {
	prefs, err := preferences.Load(preferencesPath)
	if err != nil {
		return nil, err
	}
	return Load(connectionsPath, prefs)
}

// Load reads the connections file at path and files each connection under
// the folder the preferences index lists it in. A missing or empty file
// yields an empty registry.
func Load(path string, prefs *preferences.Store) (*Registry, error) {
	machineID, err := prefs.Identifier()
	if err != nil {
		return nil, err
	}

	doc, err := storage.LoadXML(path)
	if err != nil {
		return nil, err
	}

	reg := &Registry{path: path, prefs: prefs, machineID: machineID}

	index := prefs.FolderIndex()
	for _, folder := range index {
		reg.loadedFolders = append(reg.loadedFolders, folder.Name)
	}

	if root := doc.Root(); root != nil {
		for _, ref := range root.SelectElements("Reference") {
			rec := recordFromElement(machineID, ref)
			if folder, ok := index.FolderOf(rec.Name()); ok {
				rec.folder = folder
			}
			reg.upsert(rec)
		}
	}

	return reg, nil
}

// Path returns the connections file the registry was loaded from or last saved to.
func (r *Registry) Path() string { return r.path }

// Preferences returns the paired preferences store.
func (r *Registry) Preferences() *preferences.Store { return r.prefs }

// MachineID returns the identifier passwords are encrypted with.
func (r *Registry) MachineID() string { return r.machineID }

// NewRecord builds a record keyed to this registry's machine identifier.
func (r *Registry) NewRecord(attrs Attributes) (*Record, error) {
	return NewRecord(r.machineID, attrs)
}

// Len returns the number of connections.
func (r *Registry) Len() int { return len(r.records) }

// Records returns the connections in order.
func (r *Registry) Records() []*Record {
	out := make([]*Record, len(r.records))
	copy(out, r.records)
	return out
}

// Get returns the connection with the given name.
func (r *Registry) Get(name string) (*Record, bool) {
	if i := r.index(name); i >= 0 {
		return r.records[i], true
	}
	return nil, false
}

// Add inserts a connection or replaces the one with the same name.
//
// When replacing, an incoming record without a password keeps the stored
// encrypted password, and one without a folder keeps the stored folder.
// A record built for another machine identifier is re-encrypted first.
func (r *Registry) Add(rec *Record) error {
	if err := rec.rekey(r.machineID); err != nil {
		return err
	}
	if i := r.index(rec.Name()); i >= 0 {
		carryOver(r.records[i], rec)
	}
	r.upsert(rec)
	return nil
}

// Replace swaps the connection named oldName for rec at the same position,
// which allows renaming. Another connection already named like rec is dropped.
func (r *Registry) Replace(oldName string, rec *Record) error {
	i := r.index(oldName)
	if i < 0 {
		return fmt.Errorf("%w: %q in %s", errors.ErrConnectionNotFound, oldName, r.path)
	}
	if err := rec.rekey(r.machineID); err != nil {
		return err
	}

	carryOver(r.records[i], rec)
	r.records[i] = rec
	if rec.Name() != oldName {
		for j := len(r.records) - 1; j >= 0; j-- {
			if j != i && r.records[j].Name() == rec.Name() {
				r.records = append(r.records[:j], r.records[j+1:]...)
			}
		}
	}
	return nil
}

// Remove deletes the named connection. Removing an absent name is a no-op;
// the result reports whether anything was removed.
func (r *Registry) Remove(name string) bool {
	i := r.index(name)
	if i < 0 {
		return false
	}
	r.records = append(r.records[:i], r.records[i+1:]...)
	return true
}

// FolderIndex flattens record folders into the preferences folder index.
// Every folder present when the registry was loaded is included, emptied if
// no connection is filed under it any more, followed by new folders in
// record order.
func (r *Registry) FolderIndex() preferences.FolderIndex {
	var idx preferences.FolderIndex
	pos := make(map[string]int)

	ensure := func(name string) int {
		if i, ok := pos[name]; ok {
			return i
		}
		pos[name] = len(idx)
		idx = append(idx, preferences.Folder{Name: name, Connections: []string{}})
		return pos[name]
	}

	for _, name := range r.loadedFolders {
		ensure(name)
	}
	for _, rec := range r.records {
		if rec.folder == "" {
			continue
		}
		i := ensure(rec.folder)
		idx[i].Connections = append(idx[i].Connections, rec.Name())
	}
	return idx
}

// Render regenerates connections.xml and the preferences document with the
// current folder index, without writing anything.
func (r *Registry) Render() (connectionsXML, preferencesXML []byte, err error) {
	root := etree.NewElement("References")
	root.CreateAttr("xmlns", referencesNamespace)
	for _, rec := range r.records {
		root.AddChild(rec.Element())
	}

	connectionsXML, err = storage.RenderXML(root)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to render connections for %s: %w", r.path, err)
	}

	r.prefs.UpdateFolderIndex(r.FolderIndex())
	preferencesXML, err = r.prefs.Render()
	if err != nil {
		return nil, nil, err
	}
	return connectionsXML, preferencesXML, nil
}

// Save writes connections.xml to path and the folder index to the
// preferences file. Both documents are rendered before anything is written,
// and either both files are replaced or neither is.
func (r *Registry) Save(path string) error {
	connectionsXML, preferencesXML, err := r.Render()
	if err != nil {
		return err
	}

	err = storage.CommitFiles(
		storage.PendingWrite{Path: path, Data: connectionsXML},
		storage.PendingWrite{Path: r.prefs.Path(), Data: preferencesXML},
	)
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}

	r.path = path
	return nil
}

func (r *Registry) index(name string) int {
	for i, rec := range r.records {
		if rec.Name() == name {
			return i
		}
	}
	return -1
}

func (r *Registry) upsert(rec *Record) {
	if i := r.index(rec.Name()); i >= 0 {
		r.records[i] = rec
		return
	}
	r.records = append(r.records, rec)
}

func carryOver(existing, incoming *Record) {
	if existing.HasPassword() && !incoming.HasPassword() {
		incoming.SetEncryptedPassword(existing.EncryptedPassword())
	}
	if incoming.folder == "" {
		incoming.folder = existing.folder
	}
}
