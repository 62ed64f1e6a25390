// Package keystore implementa un almacén de certificados y llaves privadas en archivo,
// direccionado por alias.
//
// Formato del archivo (YAML):
//
//	version: 1
//	kdf: {n: 32768, salt: <b64>}
//	mac: <b64 HMAC-SHA256 de las entradas, llave = scrypt(password del store)>
//	entries:
//	  - alias: server
//	    kind: private-key | trusted-certificate
//	    certificates: [<PEM>, ...]   # cadena, hoja primero
//	    key: {n, salt, nonce, data}  # PKCS#8 sellado con XChaCha20-Poly1305, llave = scrypt(password de la entrada)
//
// Un store inexistente se comporta como vacío; se crea en el primer guardado.
package keystore

import (
	"crypto"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
	"gopkg.in/yaml.v3"

	"github.com/jhoicas/ilves-api/internal/infrastructure/metrics"
)

// Tipos de entrada.
const (
	KindPrivateKey  = "private-key"
	KindCertificate = "trusted-certificate"
)

const (
	formatVersion = 1
	// DefaultKDFCost parámetro N de scrypt para archivos nuevos.
	DefaultKDFCost = 1 << 15
	// MaxKDFCost N máximo aceptado al leer un archivo; el N se lee antes de verificar el MAC.
	MaxKDFCost     = 1 << 20
	saltSize       = 16
	derivedKeySize = 32
)

var (
	// ErrIntegrity contraseña del store incorrecta o archivo alterado.
	ErrIntegrity = errors.New("keystore: contraseña incorrecta o archivo corrupto")
	// ErrEntryPassword contraseña de la entrada incorrecta.
	ErrEntryPassword = errors.New("keystore: contraseña de la entrada incorrecta")
	// ErrNoPrivateKey la entrada no contiene llave privada.
	ErrNoPrivateKey = errors.New("keystore: la entrada no contiene llave privada")

	// errUnchanged hace que update termine sin escribir el archivo.
	errUnchanged = errors.New("keystore: sin cambios")
)

type document struct {
	Version int     `yaml:"version"`
	KDF     kdf     `yaml:"kdf"`
	MAC     string  `yaml:"mac"`
	Entries []entry `yaml:"entries"`
}

type kdf struct {
	N    int    `yaml:"n"`
	Salt string `yaml:"salt"`
}

type entry struct {
	Alias        string     `yaml:"alias"`
	Kind         string     `yaml:"kind"`
	Created      time.Time  `yaml:"created"`
	Certificates []string   `yaml:"certificates"`
	Key          *sealedKey `yaml:"key,omitempty"`
}

type sealedKey struct {
	N     int    `yaml:"n"`
	Salt  string `yaml:"salt"`
	Nonce string `yaml:"nonce"`
	Data  string `yaml:"data"`
}

// EntryInfo descripción pública de una entrada.
type EntryInfo struct {
	Alias       string
	Kind        string
	Subject     string
	Fingerprint string
	NotBefore   time.Time
	NotAfter    time.Time
	Created     time.Time
}

// Store key store en archivo. Seguro para uso concurrente dentro del proceso.
type Store struct {
	path     string
	password string
	kdfCost  int

	mu      sync.Mutex
	macSalt string
	macKey  []byte
}

// Option configura el Store.
type Option func(*Store)

// WithKDFCost fija el parámetro N de scrypt para datos nuevos (potencia de 2).
func WithKDFCost(n int) Option {
	return func(s *Store) { s.kdfCost = n }
}

// Open prepara el store sobre path. No toca el disco hasta la primera operación.
func Open(path, password string, opts ...Option) *Store {
	s := &Store{path: path, password: password, kdfCost: DefaultKDFCost}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Path ruta del archivo.
func (s *Store) Path() string { return s.path }

// HasCertificate indica si el store contiene el alias.
func (s *Store) HasCertificate(alias string) (bool, error) {
	var found bool
	err := s.read("has", func(doc *document) error {
		found = doc.find(alias) >= 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("comprobar certificado '%s' en key store %s: %w", alias, s.path, err)
	}
	return found, nil
}

// Certificate devuelve el certificado hoja del alias o nil si no existe.
func (s *Store) Certificate(alias string) (*x509.Certificate, error) {
	var cert *x509.Certificate
	err := s.read("get_certificate", func(doc *document) error {
		i := doc.find(alias)
		if i < 0 {
			return nil
		}
		chain, err := decodeChain(doc.Entries[i].Certificates)
		if err != nil {
			return err
		}
		cert = chain[0]
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cargar certificado '%s' del key store %s: %w", alias, s.path, err)
	}
	return cert, nil
}

// SaveCertificate guarda (o reemplaza) una entrada de certificado de confianza.
func (s *Store) SaveCertificate(alias string, cert *x509.Certificate) error {
	err := s.update("save_certificate", func(doc *document) error {
		doc.put(entry{
			Alias:        alias,
			Kind:         KindCertificate,
			Created:      time.Now().UTC(),
			Certificates: []string{encodeCert(cert)},
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("guardar certificado '%s' en key store %s: %w", alias, s.path, err)
	}
	return nil
}

// SetKeyEntry guarda una llave privada con su cadena (hoja primero), sellada con entryPassword.
func (s *Store) SetKeyEntry(alias string, key crypto.PrivateKey, entryPassword string, chain []*x509.Certificate) error {
	e, err := s.keyEntry(alias, key, entryPassword, chain)
	if err != nil {
		return err
	}
	err = s.update("set_key_entry", func(doc *document) error {
		doc.put(e)
		return nil
	})
	if err != nil {
		return fmt.Errorf("guardar llave '%s' en key store %s: %w", alias, s.path, err)
	}
	return nil
}

// addKeyEntryIfAbsent guarda la entrada solo si el alias no existe, en una única carga del archivo.
func (s *Store) addKeyEntryIfAbsent(op, alias string, key crypto.PrivateKey, entryPassword string, chain []*x509.Certificate) (bool, error) {
	e, err := s.keyEntry(alias, key, entryPassword, chain)
	if err != nil {
		return false, err
	}
	added := false
	err = s.update(op, func(doc *document) error {
		if doc.find(alias) >= 0 {
			return errUnchanged
		}
		doc.put(e)
		added = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("guardar llave '%s' en key store %s: %w", alias, s.path, err)
	}
	return added, nil
}

// keyEntry sella la llave fuera del mutex: scrypt es lento.
func (s *Store) keyEntry(alias string, key crypto.PrivateKey, entryPassword string, chain []*x509.Certificate) (entry, error) {
	if len(chain) == 0 {
		return entry{}, fmt.Errorf("guardar llave '%s': cadena de certificados vacía", alias)
	}
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return entry{}, fmt.Errorf("guardar llave '%s': serializar PKCS#8: %w", alias, err)
	}
	sealed, err := seal(der, entryPassword, alias, s.kdfCost)
	if err != nil {
		return entry{}, fmt.Errorf("guardar llave '%s': %w", alias, err)
	}
	certs := make([]string, 0, len(chain))
	for _, c := range chain {
		certs = append(certs, encodeCert(c))
	}
	return entry{
		Alias:        alias,
		Kind:         KindPrivateKey,
		Created:      time.Now().UTC(),
		Certificates: certs,
		Key:          sealed,
	}, nil
}

// PrivateKey devuelve la llave privada del alias o nil si el alias no existe.
func (s *Store) PrivateKey(alias, entryPassword string) (crypto.PrivateKey, error) {
	var key crypto.PrivateKey
	err := s.read("get_private_key", func(doc *document) error {
		i := doc.find(alias)
		if i < 0 {
			return nil
		}
		e := doc.Entries[i]
		if e.Key == nil {
			return ErrNoPrivateKey
		}
		der, err := open(e.Key, entryPassword, alias)
		if err != nil {
			return err
		}
		key, err = x509.ParsePKCS8PrivateKey(der)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("cargar llave privada '%s' del key store %s: %w", alias, s.path, err)
	}
	return key, nil
}

// TLSCertificate arma el tls.Certificate (cadena + llave) de una entrada de llave privada.
func (s *Store) TLSCertificate(alias, entryPassword string) (tls.Certificate, error) {
	var out tls.Certificate
	err := s.read("get_tls_certificate", func(doc *document) error {
		i := doc.find(alias)
		if i < 0 {
			return fmt.Errorf("alias inexistente")
		}
		e := doc.Entries[i]
		if e.Key == nil {
			return ErrNoPrivateKey
		}
		chain, err := decodeChain(e.Certificates)
		if err != nil {
			return err
		}
		der, err := open(e.Key, entryPassword, alias)
		if err != nil {
			return err
		}
		key, err := x509.ParsePKCS8PrivateKey(der)
		if err != nil {
			return err
		}
		for _, c := range chain {
			out.Certificate = append(out.Certificate, c.Raw)
		}
		out.PrivateKey = key
		out.Leaf = chain[0]
		return nil
	})
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("cargar certificado TLS '%s' del key store %s: %w", alias, s.path, err)
	}
	return out, nil
}

// RemoveCertificate elimina la entrada. Eliminar un alias inexistente no es error.
func (s *Store) RemoveCertificate(alias string) error {
	err := s.update("remove", func(doc *document) error {
		if i := doc.find(alias); i >= 0 {
			doc.Entries = append(doc.Entries[:i], doc.Entries[i+1:]...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("eliminar certificado '%s' del key store %s: %w", alias, s.path, err)
	}
	return nil
}

// Entries lista las entradas ordenadas por alias.
func (s *Store) Entries() ([]EntryInfo, error) {
	var out []EntryInfo
	err := s.read("list", func(doc *document) error {
		for _, e := range doc.Entries {
			chain, err := decodeChain(e.Certificates)
			if err != nil {
				return fmt.Errorf("entrada '%s': %w", e.Alias, err)
			}
			out = append(out, EntryInfo{
				Alias:       e.Alias,
				Kind:        e.Kind,
				Subject:     chain[0].Subject.String(),
				Fingerprint: Fingerprint(chain[0]),
				NotBefore:   chain[0].NotBefore,
				NotAfter:    chain[0].NotAfter,
				Created:     e.Created,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listar key store %s: %w", s.path, err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Alias < out[j].Alias })
	return out, nil
}

// Fingerprint SHA-256 en hex (minúsculas) del certificado DER. Es el alias de los certificados generados.
func Fingerprint(cert *x509.Certificate) string {
	sum := sha256.Sum256(cert.Raw)
	return fmt.Sprintf("%x", sum[:])
}

// read carga el documento bajo el mutex y ejecuta fn.
func (s *Store) read(op string, fn func(doc *document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err == nil {
		err = fn(doc)
	}
	metrics.KeyStoreOperations.WithLabelValues(op, metrics.Result(err)).Inc()
	return err
}

// update carga, modifica y guarda el documento bajo el mutex.
func (s *Store) update(op string, fn func(doc *document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err == nil {
		err = fn(doc)
	}
	if err == nil {
		err = s.save(doc)
	} else if errors.Is(err, errUnchanged) {
		err = nil
	}
	metrics.KeyStoreOperations.WithLabelValues(op, metrics.Result(err)).Inc()
	return err
}

func (s *Store) load() (*document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &document{Version: formatVersion}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("leer archivo: %w", err)
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIntegrity, err)
	}
	if doc.Version != formatVersion {
		return nil, fmt.Errorf("versión de key store no soportada: %d", doc.Version)
	}
	if doc.KDF.Salt == "" || doc.MAC == "" {
		return nil, ErrIntegrity
	}
	key, err := s.deriveMACKey(doc.KDF)
	if err != nil {
		return nil, err
	}
	want, err := computeMAC(key, doc.Entries)
	if err != nil {
		return nil, err
	}
	got, err := base64.StdEncoding.DecodeString(doc.MAC)
	if err != nil || !hmac.Equal(want, got) {
		return nil, ErrIntegrity
	}
	return &doc, nil
}

func (s *Store) save(doc *document) error {
	if doc.KDF.Salt == "" {
		salt, err := randomBytes(saltSize)
		if err != nil {
			return err
		}
		doc.KDF = kdf{N: s.kdfCost, Salt: base64.StdEncoding.EncodeToString(salt)}
	}
	key, err := s.deriveMACKey(doc.KDF)
	if err != nil {
		return err
	}
	mac, err := computeMAC(key, doc.Entries)
	if err != nil {
		return err
	}
	doc.Version = formatVersion
	doc.MAC = base64.StdEncoding.EncodeToString(mac)
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("serializar key store: %w", err)
	}
	return writeFileAtomic(s.path, data)
}

// deriveMACKey deriva (y memoriza por salt) la llave HMAC del store.
func (s *Store) deriveMACKey(k kdf) ([]byte, error) {
	if k.Salt == "" {
		// Store vacío recién creado en memoria: no hay MAC que verificar todavía.
		return nil, nil
	}
	if s.macSalt == k.Salt && s.macKey != nil {
		return s.macKey, nil
	}
	salt, err := base64.StdEncoding.DecodeString(k.Salt)
	if err != nil || !validKDFCost(k.N) {
		return nil, ErrIntegrity
	}
	key, err := scrypt.Key([]byte(s.password), salt, k.N, 8, 1, derivedKeySize)
	if err != nil {
		return nil, fmt.Errorf("derivar llave del key store: %w", err)
	}
	s.macSalt, s.macKey = k.Salt, key
	return key, nil
}

// validKDFCost acepta potencias de 2 entre 2 y MaxKDFCost.
func validKDFCost(n int) bool {
	return n > 1 && n <= MaxKDFCost && n&(n-1) == 0
}

func computeMAC(key []byte, entries []entry) ([]byte, error) {
	if key == nil {
		return nil, nil
	}
	body, err := yaml.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("serializar entradas: %w", err)
	}
	h := hmac.New(sha256.New, key)
	fmt.Fprintf(h, "ilves-keystore-v%d\n", formatVersion)
	h.Write(body)
	return h.Sum(nil), nil
}

func (d *document) find(alias string) int {
	for i := range d.Entries {
		if d.Entries[i].Alias == alias {
			return i
		}
	}
	return -1
}

func (d *document) put(e entry) {
	if i := d.find(e.Alias); i >= 0 {
		d.Entries[i] = e
		return
	}
	d.Entries = append(d.Entries, e)
}

func seal(plain []byte, password, alias string, n int) (*sealedKey, error) {
	salt, err := randomBytes(saltSize)
	if err != nil {
		return nil, err
	}
	k, err := scrypt.Key([]byte(password), salt, n, 8, 1, chacha20poly1305.KeySize)
	if err != nil {
		return nil, fmt.Errorf("derivar llave de la entrada: %w", err)
	}
	aead, err := chacha20poly1305.NewX(k)
	if err != nil {
		return nil, err
	}
	nonce, err := randomBytes(aead.NonceSize())
	if err != nil {
		return nil, err
	}
	data := aead.Seal(nil, nonce, plain, []byte(alias))
	return &sealedKey{
		N:     n,
		Salt:  base64.StdEncoding.EncodeToString(salt),
		Nonce: base64.StdEncoding.EncodeToString(nonce),
		Data:  base64.StdEncoding.EncodeToString(data),
	}, nil
}

func open(sk *sealedKey, password, alias string) ([]byte, error) {
	salt, err1 := base64.StdEncoding.DecodeString(sk.Salt)
	nonce, err2 := base64.StdEncoding.DecodeString(sk.Nonce)
	data, err3 := base64.StdEncoding.DecodeString(sk.Data)
	if err := errors.Join(err1, err2, err3); err != nil || !validKDFCost(sk.N) {
		return nil, ErrIntegrity
	}
	k, err := scrypt.Key([]byte(password), salt, sk.N, 8, 1, chacha20poly1305.KeySize)
	if err != nil {
		return nil, fmt.Errorf("derivar llave de la entrada: %w", err)
	}
	aead, err := chacha20poly1305.NewX(k)
	if err != nil {
		return nil, err
	}
	if len(nonce) != aead.NonceSize() {
		return nil, ErrIntegrity
	}
	plain, err := aead.Open(nil, nonce, data, []byte(alias))
	if err != nil {
		return nil, ErrEntryPassword
	}
	return plain, nil
}

func encodeCert(cert *x509.Certificate) string {
	return string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw}))
}

// EncodeCertificatePEM serializa un certificado en PEM.
func EncodeCertificatePEM(cert *x509.Certificate) string { return encodeCert(cert) }

// EncodePrivateKeyPEM serializa una llave privada en PEM PKCS#8.
func EncodePrivateKeyPEM(key crypto.PrivateKey) (string, error) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return "", err
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})), nil
}

// ParseCertificatePEM lee el primer bloque CERTIFICATE de data.
func ParseCertificatePEM(data []byte) (*x509.Certificate, error) {
	for len(data) > 0 {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}
		if block.Type == "CERTIFICATE" {
			return x509.ParseCertificate(block.Bytes)
		}
	}
	return nil, fmt.Errorf("no se encontró bloque CERTIFICATE en el PEM")
}

func decodeChain(pems []string) ([]*x509.Certificate, error) {
	if len(pems) == 0 {
		return nil, fmt.Errorf("%w: entrada sin certificados", ErrIntegrity)
	}
	chain := make([]*x509.Certificate, 0, len(pems))
	for _, p := range pems {
		c, err := ParseCertificatePEM([]byte(p))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIntegrity, err)
		}
		chain = append(chain, c)
	}
	return chain, nil
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generar aleatorio: %w", err)
	}
	return b, nil
}

// writeFileAtomic escribe en un temporal del mismo directorio y renombra (0600).
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".keystore-*")
	if err != nil {
		return fmt.Errorf("crear temporal: %w", err)
	}
	name := tmp.Name()
	defer os.Remove(name)
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("permisos: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("escribir key store: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cerrar temporal: %w", err)
	}
	if err := os.Rename(name, path); err != nil {
		return fmt.Errorf("reemplazar key store: %w", err)
	}
	return nil
}
