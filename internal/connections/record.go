package connections

import (
	"fmt"

	"github.com/beevik/etree"

	"github.com/DeprecatedLuar/sqldevcfg/internal/crypto"
)

// Distinguished attribute names
const (
	KeyName         = "ConnName"
	KeyUser         = "user"
	KeyHost         = "customUrl"
	KeyPassword     = "password"
	KeySavePassword = "SavePassword"

	// Pseudo-attributes: accepted on input and emitted in the data form,
	// never stored inline in connections.xml.
	KeyFolder            = "folder"
	KeyPlaintextPassword = "plaintext_password"
)

const (
	defaultReferenceClass = "oracle.jdeveloper.db.adapter.DatabaseProvider"
	defaultFactoryClass   = "oracle.jdevimpl.db.adapter.DatabaseProviderFactory1212"

	flagTrue  = "true"
	flagFalse = "false"
)

// DefaultAttributes fills every attribute a new connection does not supply,
// in this order. The values describe a local Oracle XE basic connection.
var DefaultAttributes = Attributes{
	{KeyFolder, ""},
	{"role", ""},
	{KeySavePassword, flagFalse},
	{"OracleConnectionType", "BASIC"},
	{"RaptorConnectionType", "Oracle"},
	{"sid", "xe"},
	{KeyHost, "jdbc:oracle:thin:@localhost:1521:xe"},
	{"oraDriverType", "thin"},
	{"NoPasswordConnection", "TRUE"},
	{"hostname", "localhost"},
	{"driver", "oracle.jdbc.OracleDriver"},
	{"port", "1521"},
	{"subtype", "oraJDBC"},
	{"OS_AUTHENTICATION", flagFalse},
	{KeyUser, "system"},
	{"KERBEROS_AUTHENTICATION", flagFalse},
	{"serviceName", ""},
	{KeyName, "[99 localhost] system"},
}

// Record is one saved connection: its attributes in order, the folder it is
// filed under, and the machine identifier its password is encrypted with.
type Record struct {
	machineID      string
	attrs          Attributes
	folder         string
	referenceClass string
	factoryClass   string
}

// NewRecord builds a connection from supplied attributes, then fills every
// missing attribute from DefaultAttributes in table order.
//
// The pseudo-attributes folder and plaintext_password are consumed: the folder
// is held on the record, and a non-empty plaintext password is encrypted and
// stored with SavePassword set.
func NewRecord(machineID string, attrs Attributes) (*Record, error) {
	r := &Record{
		machineID:      machineID,
		referenceClass: defaultReferenceClass,
		factoryClass:   defaultFactoryClass,
	}

	var plaintext string
	for _, attr := range attrs {
		switch attr.Key {
		case KeyPlaintextPassword:
			plaintext = attr.Value
		case KeyFolder:
			r.folder = attr.Value
		default:
			r.attrs.Set(attr.Key, attr.Value)
		}
	}

	for _, def := range DefaultAttributes {
		if def.Key == KeyFolder || r.attrs.Has(def.Key) {
			continue
		}
		r.attrs.Set(def.Key, def.Value)
	}

	if plaintext != "" {
		if err := r.SetPlaintext(plaintext); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// FromData builds a record from the plain data form produced by Data, as
// read back from an export bundle. Defaults are not applied.
func FromData(machineID string, data Attributes) (*Record, error) {
	base := &Record{
		machineID:      machineID,
		referenceClass: defaultReferenceClass,
		factoryClass:   defaultFactoryClass,
	}
	return base.WithData(data)
}

// WithData returns a copy of r whose folder and attributes are replaced by
// the plain data form. The reference classes and machine identifier are kept.
//
// plaintext_password is the only password source: an encrypted password in
// data keeps its position but is blanked, then the plaintext is encrypted
// into it when non-empty. A blank password is filled from the stored one by
// Registry.Add and Registry.Replace.
func (r *Record) WithData(data Attributes) (*Record, error) {
	out := &Record{
		machineID:      r.machineID,
		referenceClass: r.referenceClass,
		factoryClass:   r.factoryClass,
	}

	var plaintext string
	for _, attr := range data {
		switch attr.Key {
		case KeyPlaintextPassword:
			plaintext = attr.Value
		case KeyFolder:
			out.folder = attr.Value
		case KeyPassword:
			out.attrs.Set(KeyPassword, "")
		default:
			out.attrs.Set(attr.Key, attr.Value)
		}
	}

	if out.Name() == "" {
		return nil, fmt.Errorf("connection data has no %s", KeyName)
	}
	if plaintext != "" {
		if err := out.SetPlaintext(plaintext); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// MachineID returns the identifier the password is encrypted with.
func (r *Record) MachineID() string { return r.machineID }

// Name returns the unique connection name.
func (r *Record) Name() string {
	name, _ := r.attrs.Get(KeyName)
	return name
}

// SetName renames the connection.
func (r *Record) SetName(name string) { r.attrs.Set(KeyName, name) }

// User returns the database user.
func (r *Record) User() string {
	user, _ := r.attrs.Get(KeyUser)
	return user
}

// SetUser sets the database user.
func (r *Record) SetUser(user string) { r.attrs.Set(KeyUser, user) }

// Host returns the connection URL.
func (r *Record) Host() string {
	host, _ := r.attrs.Get(KeyHost)
	return host
}

// SetHost sets the connection URL.
func (r *Record) SetHost(url string) { r.attrs.Set(KeyHost, url) }

// Folder returns the folder the connection is filed under, "" for none.
func (r *Record) Folder() string { return r.folder }

// SetFolder files the connection under folder; "" removes it from folders.
func (r *Record) SetFolder(folder string) { r.folder = folder }

// Get returns a raw attribute.
func (r *Record) Get(key string) (string, bool) { return r.attrs.Get(key) }

// Set stores a raw attribute. Use SetPlaintext for passwords.
func (r *Record) Set(key, value string) { r.attrs.Set(key, value) }

// Attributes returns a copy of the inline attributes.
func (r *Record) Attributes() Attributes { return r.attrs.Clone() }

// SavePassword reports whether the password is persisted.
func (r *Record) SavePassword() bool {
	flag, _ := r.attrs.Get(KeySavePassword)
	return flag == flagTrue
}

// EncryptedPassword returns the stored encrypted password, "" when there is none.
func (r *Record) EncryptedPassword() string {
	enc, _ := r.attrs.Get(KeyPassword)
	return enc
}

// HasPassword reports whether a non-empty encrypted password is stored.
func (r *Record) HasPassword() bool {
	return r.EncryptedPassword() != ""
}

// SetEncryptedPassword stores an already encrypted password verbatim and
// marks it to be saved.
func (r *Record) SetEncryptedPassword(encrypted string) {
	r.attrs.Set(KeyPassword, encrypted)
	r.attrs.Set(KeySavePassword, flagTrue)
}

// Plaintext decrypts the stored password.
func (r *Record) Plaintext() (string, error) {
	plain, err := crypto.Decrypt(r.EncryptedPassword(), r.machineID)
	if err != nil {
		return "", fmt.Errorf("connection %q: %w", r.Name(), err)
	}
	return plain, nil
}

// SetPlaintext encrypts and stores a password. An empty password is stored as
// an empty value.
func (r *Record) SetPlaintext(plaintext string) error {
	encrypted, err := crypto.Encrypt(plaintext, r.machineID)
	if err != nil {
		return fmt.Errorf("connection %q: %w", r.Name(), err)
	}
	r.SetEncryptedPassword(encrypted)
	return nil
}

// Data returns the plain data form: folder and decrypted password first,
// then every inline attribute.
func (r *Record) Data() (Attributes, error) {
	plain, err := r.Plaintext()
	if err != nil {
		return nil, err
	}

	data := make(Attributes, 0, len(r.attrs)+2)
	data = append(data,
		Attribute{KeyFolder, r.folder},
		Attribute{KeyPlaintextPassword, plain},
	)
	return append(data, r.attrs...), nil
}

// Clone returns an independent copy.
func (r *Record) Clone() *Record {
	c := *r
	c.attrs = r.attrs.Clone()
	return &c
}

// rekey re-encrypts the password for another machine identifier.
func (r *Record) rekey(machineID string) error {
	if r.machineID == machineID {
		return nil
	}
	plain, err := r.Plaintext()
	if err != nil {
		return err
	}
	encrypted, err := crypto.Encrypt(plain, machineID)
	if err != nil {
		return fmt.Errorf("connection %q: %w", r.Name(), err)
	}

	r.machineID = machineID
	if r.attrs.Has(KeyPassword) {
		r.attrs.Set(KeyPassword, encrypted)
	}
	return nil
}

// ============================================================================
// XML form
// ============================================================================

// Element builds the <Reference> element for connections.xml. The password
// attribute is left out unless SavePassword is "true".
func (r *Record) Element() *etree.Element {
	ref := etree.NewElement("Reference")
	ref.CreateAttr("name", r.Name())
	ref.CreateAttr("className", r.referenceClass)
	ref.CreateAttr("xmlns", "")
	ref.CreateElement("Factory").CreateAttr("className", r.factoryClass)

	addrs := ref.CreateElement("RefAddresses")
	save := r.SavePassword()
	for _, attr := range r.attrs {
		if attr.Key == KeyPassword && !save {
			continue
		}
		addr := addrs.CreateElement("StringRefAddr")
		addr.CreateAttr("addrType", attr.Key)
		contents := addr.CreateElement("Contents")
		if attr.Value != "" {
			contents.SetText(attr.Value)
		}
	}
	return ref
}

// recordFromElement reads a <Reference> element as stored on disk. Defaults
// are not applied so unmanaged connection types round-trip untouched.
func recordFromElement(machineID string, ref *etree.Element) *Record {
	r := &Record{
		machineID:      machineID,
		referenceClass: ref.SelectAttrValue("className", defaultReferenceClass),
		factoryClass:   defaultFactoryClass,
	}
	if factory := ref.SelectElement("Factory"); factory != nil {
		r.factoryClass = factory.SelectAttrValue("className", defaultFactoryClass)
	}

	if addrs := ref.SelectElement("RefAddresses"); addrs != nil {
		for _, addr := range addrs.SelectElements("StringRefAddr") {
			value := ""
			if contents := addr.SelectElement("Contents"); contents != nil {
				value = contents.Text()
			}
			r.attrs.Set(addr.SelectAttrValue("addrType", ""), value)
		}
	}

	if !r.attrs.Has(KeyName) {
		r.attrs.Set(KeyName, ref.SelectAttrValue("name", ""))
	}
	return r
}
