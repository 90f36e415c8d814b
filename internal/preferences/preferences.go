// Package preferences reads and edits SQL Developer's product-preferences.xml:
// the machine identifier used to encrypt passwords and the connection folder index.
package preferences

import (
	"fmt"
	"os"

	"github.com/beevik/etree"

	"github.com/DeprecatedLuar/sqldevcfg/internal/errors"
	"github.com/DeprecatedLuar/sqldevcfg/internal/storage"
)

// FileName is the preferences file name inside an o.sqldeveloper.* directory.
const FileName = "product-preferences.xml"

const (
	identifierPath = ".//value[@n='db.system.id']"
	foldersPath    = ".//hash[@n='DatabaseFoldersCache']/hash[@n='Folders']/hash[@n='IdeConnections']"

	foldersCacheName   = "DatabaseFoldersCache"
	foldersName        = "Folders"
	ideConnectionsName = "IdeConnections"

	defaultRootTag   = "ide:preferences"
	defaultRootSpace = "http://xmlns.oracle.com/ide"
)

// Folder is one entry of the folder index: a folder name and the names of
// the connections filed under it, in display order.
type Folder struct {
	Name        string   `json:"name" yaml:"name"`
	Connections []string `json:"connections" yaml:"connections"`
}

// FolderIndex is the ordered list of folders stored in the preferences file.
type FolderIndex []Folder

// FolderOf returns the folder a connection is filed under.
// When a name appears in several folders the last one wins.
func (idx FolderIndex) FolderOf(connection string) (string, bool) {
	for i := len(idx) - 1; i >= 0; i-- {
		for _, name := range idx[i].Connections {
			if name == connection {
				return idx[i].Name, true
			}
		}
	}
	return "", false
}

// Store is a loaded preferences document.
type Store struct {
	path string
	doc  *etree.Document
}

// Load reads the preferences file at path.
func Load(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s does not exist (start SQL Developer once to create it)", errors.ErrNotInitialized, path)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	doc, err := storage.LoadXML(path)
	if err != nil {
		return nil, err
	}
	return &Store{path: path, doc: doc}, nil
}

// Path returns the file the store was loaded from.
func (s *Store) Path() string {
	return s.path
}

// Identifier returns the db.system.id value the legacy password scheme keys on.
func (s *Store) Identifier() (string, error) {
	root := s.doc.Root()
	if root == nil {
		return "", fmt.Errorf("%w: %s has no root element", errors.ErrMissingIdentifier, s.path)
	}

	elem := root.FindElement(identifierPath)
	if elem == nil {
		return "", fmt.Errorf("%w: expected one value[@n='db.system.id'] in %s, found none", errors.ErrMissingIdentifier, s.path)
	}

	id := elem.SelectAttrValue("v", "")
	if id == "" {
		return "", fmt.Errorf("%w: db.system.id in %s has no value", errors.ErrMissingIdentifier, s.path)
	}
	return id, nil
}

// FolderIndex returns the folder index in document order.
// A missing folder container yields an empty index.
func (s *Store) FolderIndex() FolderIndex {
	root := s.doc.Root()
	if root == nil {
		return nil
	}

	container := root.FindElement(foldersPath)
	if container == nil {
		return nil
	}

	var idx FolderIndex
	for _, list := range container.SelectElements("list") {
		folder := Folder{Name: list.SelectAttrValue("n", ""), Connections: []string{}}
		for _, entry := range list.SelectElements("string") {
			folder.Connections = append(folder.Connections, entry.SelectAttrValue("v", ""))
		}
		idx = append(idx, folder)
	}
	return idx
}

// UpdateFolderIndex writes every folder of idx into the document. Each folder
// replaces an existing list of the same name, or is appended when new.
// Folders not named in idx are left alone, as is all unrelated preference data.
// Missing intermediate containers are created.
func (s *Store) UpdateFolderIndex(idx FolderIndex) {
	container := s.folderContainer()

	for _, folder := range idx {
		for _, list := range container.SelectElements("list") {
			if list.SelectAttrValue("n", "") == folder.Name {
				container.RemoveChild(list)
			}
		}

		list := container.CreateElement("list")
		list.CreateAttr("n", folder.Name)
		for _, name := range folder.Connections {
			list.CreateElement("string").CreateAttr("v", name)
		}
	}
}

// Render serializes the whole document.
func (s *Store) Render() ([]byte, error) {
	root := s.doc.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: %s has no root element", errors.ErrSerialization, s.path)
	}

	data, err := storage.RenderXML(root)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", s.path, err)
	}
	return data, nil
}

// Save writes the document back to its file.
func (s *Store) Save() error {
	data, err := s.Render()
	if err != nil {
		return err
	}
	return storage.CommitFiles(storage.PendingWrite{Path: s.path, Data: data})
}

// folderContainer finds the IdeConnections hash, creating it and its parents
// when absent.
func (s *Store) folderContainer() *etree.Element {
	root := s.doc.Root()
	if root == nil {
		root = s.doc.CreateElement(defaultRootTag)
		root.CreateAttr("xmlns:ide", defaultRootSpace)
	}

	if container := root.FindElement(foldersPath); container != nil {
		return container
	}

	cache := root.FindElement(".//hash[@n='" + foldersCacheName + "']")
	if cache == nil {
		cache = namedHash(root, foldersCacheName)
	}
	folders := childHash(cache, foldersName)
	return childHash(folders, ideConnectionsName)
}

func childHash(parent *etree.Element, name string) *etree.Element {
	for _, h := range parent.SelectElements("hash") {
		if h.SelectAttrValue("n", "") == name {
			return h
		}
	}
	return namedHash(parent, name)
}

func namedHash(parent *etree.Element, name string) *etree.Element {
	h := parent.CreateElement("hash")
	h.CreateAttr("n", name)
	return h
}
