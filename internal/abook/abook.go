// Package abook reads and writes abook addressbook files and converts
// their entries to and from vCards.
//
// An addressbook is a flat INI-like text file: a [format] metadata
// section followed by numbered sections, one contact each, holding
// key=value fields. The Book type keeps an in-memory parse of one file,
// refreshes it from disk when the file's mtime advances, and serves the
// entries as vCards keyed by synthesized UIDs of the form index@fqdn.
package abook

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-vcard"
	"github.com/natefinch/atomic"
	"gopkg.in/ini.v1"
)

// abook writes key=value with no spaces around the separator.
func init() {
	ini.PrettyFormat = false
}

// Book is one abook addressbook file.
//
// A single mutex serializes every operation. Reads refresh the cached
// parse first; refresh is purely mtime-gated, so a write landing within
// the same mtime tick as the previous parse stays invisible until the
// mtime advances. Mutations never touch the cached parse: they re-read
// the file fresh under the lock, apply the change and write the whole
// file back, which keeps concurrent appends from picking the same index.
type Book struct {
	path string
	fqdn string

	mu      sync.Mutex
	book    *ini.File
	modTime time.Time
	loaded  bool

	// lastIndex is the highest index ever observed or handed out by
	// this Book. Appends allocate past it, so an index freed by Remove
	// is not reused for the life of the Book even though the file no
	// longer shows it.
	lastIndex int
}

// Object pairs a vCard with its UID and change fingerprint.
type Object struct {
	UID  string
	Card vcard.Card
	ETag string
}

// DefaultPath returns abook's conventional addressbook location,
// ~/.abook/addressbook.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "addressbook"
	}

	return filepath.Join(home, ".abook", "addressbook")
}

// Open loads the addressbook at path. An empty path falls back to
// DefaultPath, an empty fqdn to the resolved host name. A missing file
// opens as an empty book; an unparseable one is a hard error.
func Open(path, fqdn string) (*Book, error) {
	if path == "" {
		path = DefaultPath()
	}

	if fqdn == "" {
		fqdn = FQDN()
	}

	b := &Book{path: path, fqdn: fqdn, lastIndex: -1}

	b.mu.Lock()
	defer b.mu.Unlock()

	err := b.refreshLocked()
	if err != nil {
		return nil, err
	}

	return b, nil
}

// Path returns the addressbook file path.
func (b *Book) Path() string {
	return b.path
}

// Filenames returns the files backing this book. Always exactly one.
func (b *Book) Filenames() []string {
	return []string{b.path}
}

// Meta returns the collection tags advertised to CardDAV frontends.
func Meta() map[string]string {
	return map[string]string{"tag": "VADDRESSBOOK"}
}

// LastModified refreshes and returns the mtime of the last parse.
func (b *Book) LastModified() (time.Time, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	err := b.refreshLocked()
	if err != nil {
		return time.Time{}, err
	}

	return b.modTime, nil
}

// UIDs returns one UID per entry, in file order.
func (b *Book) UIDs() ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	err := b.refreshLocked()
	if err != nil {
		return nil, err
	}

	var uids []string
	for _, sec := range entrySections(b.book) {
		uids = append(uids, uidFor(sec.Name(), b.fqdn))
	}

	return uids, nil
}

// Cards returns every entry as a vCard, in file order.
func (b *Book) Cards() ([]vcard.Card, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	err := b.refreshLocked()
	if err != nil {
		return nil, err
	}

	var cards []vcard.Card
	for _, sec := range entrySections(b.book) {
		cards = append(cards, b.cardLocked(sec))
	}

	return cards, nil
}

// Card returns the vCard for one UID.
func (b *Book) Card(uid string) (vcard.Card, error) {
	card, _, err := b.CardETag(uid)

	return card, err
}

// CardETag returns the vCard and change fingerprint for one UID.
func (b *Book) CardETag(uid string) (vcard.Card, string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	err := b.refreshLocked()
	if err != nil {
		return nil, "", err
	}

	sec, err := b.book.GetSection(indexFromUID(uid))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s", ErrUnknownUID, uid)
	}

	return b.cardLocked(sec), Entry(sec.KeysHash()).ETag(), nil
}

// Objects returns cards with UIDs and fingerprints for the given UIDs,
// or for every entry in file order when uids is nil.
func (b *Book) Objects(uids []string) ([]Object, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	err := b.refreshLocked()
	if err != nil {
		return nil, err
	}

	if uids == nil {
		for _, sec := range entrySections(b.book) {
			uids = append(uids, uidFor(sec.Name(), b.fqdn))
		}
	}

	objects := make([]Object, 0, len(uids))

	for _, uid := range uids {
		sec, err := b.book.GetSection(indexFromUID(uid))
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownUID, uid)
		}

		objects = append(objects, Object{
			UID:  uid,
			Card: b.cardLocked(sec),
			ETag: Entry(sec.KeysHash()).ETag(),
		})
	}

	return objects, nil
}

// VCF serializes the whole book as one vCard stream.
func (b *Book) VCF() (string, error) {
	cards, err := b.Cards()
	if err != nil {
		return "", err
	}

	parts := make([]string, 0, len(cards))

	for _, card := range cards {
		var buf bytes.Buffer

		err := vcard.NewEncoder(&buf).Encode(card)
		if err != nil {
			return "", fmt.Errorf("serializing vcard: %w", err)
		}

		parts = append(parts, buf.String())
	}

	return strings.Join(parts, "\r\n"), nil
}

// Append adds a card as a new entry and returns its UID. The new index
// is max(existing)+1, or 0 for an empty book; an index freed by Remove
// is never handed out again for the life of the Book.
func (b *Book) Append(card vcard.Card) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	file, err := loadFile(b.path)
	if err != nil {
		return "", err
	}

	ensureFormat(file)

	next := maxIndex(file) + 1
	if b.lastIndex+1 > next {
		next = b.lastIndex + 1
	}

	index := strconv.Itoa(next)

	err = b.setEntry(file, index, card)
	if err != nil {
		return "", err
	}

	err = b.persistLocked(file)
	if err != nil {
		return "", err
	}

	b.lastIndex = next

	return uidFor(index, b.fqdn), nil
}

// Replace overwrites the entry for uid with the card's fields. This is a
// full overwrite, not a merge: fields absent from the card are dropped.
// The section keeps its position in the file and the UID is unchanged.
func (b *Book) Replace(uid string, card vcard.Card) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	file, err := loadFile(b.path)
	if err != nil {
		return "", err
	}

	index := indexFromUID(uid)

	_, err = file.GetSection(index)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownUID, uid)
	}

	ensureFormat(file)

	err = b.setEntry(file, index, card)
	if err != nil {
		return "", err
	}

	err = b.persistLocked(file)
	if err != nil {
		return "", err
	}

	return uidFor(index, b.fqdn), nil
}

// Remove deletes the entry for uid. Removing an unknown UID is an error
// and leaves the file untouched.
func (b *Book) Remove(uid string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	file, err := loadFile(b.path)
	if err != nil {
		return err
	}

	index := indexFromUID(uid)

	_, err = file.GetSection(index)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownUID, uid)
	}

	file.DeleteSection(index)

	return b.persistLocked(file)
}

// Write decodes a whole vCard stream and writes a brand-new addressbook
// at path, numbering entries 0..N-1 in stream order. Parent directories
// are created; photos carried by the cards are stored best-effort beside
// the file.
func Write(r io.Reader, path string) error {
	file := ini.Empty()
	ensureFormat(file)

	dec := vcard.NewDecoder(r)

	for i := 0; ; i++ {
		card, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return fmt.Errorf("parsing vcard: %w", err)
		}

		err = setEntry(file, strconv.Itoa(i), card, path)
		if err != nil {
			return err
		}
	}

	err := os.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		return fmt.Errorf("creating addressbook dir: %w", err)
	}

	return writeFile(file, path)
}

// refreshLocked reparses the file when its mtime has advanced past the
// last parse, or when no parse has succeeded yet. A missing file reads
// as an empty book and is re-checked on every refresh. mtime has
// whatever granularity the filesystem offers; a write within the same
// tick as the previous parse is served stale until the mtime moves.
func (b *Book) refreshLocked() error {
	info, err := os.Stat(b.path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("stat %s: %w", b.path, err)
		}

		b.book = ini.Empty()
		b.loaded = false

		return nil
	}

	if b.loaded && !info.ModTime().After(b.modTime) {
		return nil
	}

	file, err := loadFile(b.path)
	if err != nil {
		return err
	}

	b.book = file
	b.modTime = info.ModTime()
	b.loaded = true

	if m := maxIndex(file); m > b.lastIndex {
		b.lastIndex = m
	}

	return nil
}

// cardLocked builds the vCard for one section, attaching the photo
// side-file when one exists.
func (b *Book) cardLocked(sec *ini.Section) vcard.Card {
	entry := Entry(sec.KeysHash())

	return ToCard(entry, uidFor(sec.Name(), b.fqdn), loadPhoto(b.path, entry[fieldName]))
}

// setEntry maps the card into the section for index, storing any photo
// beside this book's file.
func (b *Book) setEntry(file *ini.File, index string, card vcard.Card) error {
	return setEntry(file, index, card, b.path)
}

// persistLocked writes the full file back atomically and drops the
// cached parse so the next read picks up our own write even when the
// mtime tick has not advanced.
func (b *Book) persistLocked(file *ini.File) error {
	err := writeFile(file, b.path)
	if err != nil {
		return err
	}

	b.loaded = false

	return nil
}

// loadFile parses an addressbook file. A missing file parses as empty.
func loadFile(path string) (*ini.File, error) {
	file, err := ini.LoadSources(ini.LoadOptions{
		Loose:               true,
		IgnoreInlineComment: true,
	}, path)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return file, nil
}

func writeFile(file *ini.File, path string) error {
	var buf bytes.Buffer

	_, err := file.WriteTo(&buf)
	if err != nil {
		return fmt.Errorf("serializing %s: %w", path, err)
	}

	err = atomic.WriteFile(path, &buf)
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	return nil
}

// entrySections returns the contact sections in file order, skipping the
// parser's default section and the format metadata.
func entrySections(file *ini.File) []*ini.Section {
	var sections []*ini.Section

	for _, sec := range file.Sections() {
		if sec.Name() == ini.DefaultSection || sec.Name() == formatSection {
			continue
		}

		sections = append(sections, sec)
	}

	return sections
}

// ensureFormat makes sure the format metadata section exists before any
// entry sections are added, so a fresh file starts with [format].
func ensureFormat(file *ini.File) {
	sec, err := file.GetSection(formatSection)
	if err != nil {
		sec, _ = file.NewSection(formatSection)
	}

	if !sec.HasKey("program") {
		_, _ = sec.NewKey("program", formatProgram)
	}

	if !sec.HasKey("version") {
		_, _ = sec.NewKey("version", formatVersion)
	}
}

// maxIndex returns the highest numeric section name in the file, or -1
// when the file has no entries. The next free index is one past it, so
// gaps left by removals are never refilled.
func maxIndex(file *ini.File) int {
	highest := -1

	for _, name := range file.SectionStrings() {
		n, err := strconv.Atoi(name)
		if err != nil || n < 0 {
			continue
		}

		if n > highest {
			highest = n
		}
	}

	return highest
}

// setEntry replaces the fields of the section for index with the card's
// mapping, creating the section if needed. Existing keys are cleared
// first: replace is an overwrite, not a merge. The card's photo, if any,
// is stored beside bookPath.
func setEntry(file *ini.File, index string, card vcard.Card, bookPath string) error {
	entry, photo := FromCard(card)
	if entry[fieldName] == "" {
		return errNoFormattedName
	}

	sec, err := file.GetSection(index)
	if err != nil {
		sec, err = file.NewSection(index)
		if err != nil {
			return fmt.Errorf("creating section %s: %w", index, err)
		}
	}

	for _, key := range sec.KeyStrings() {
		sec.DeleteKey(key)
	}

	for _, name := range fieldOrder {
		value, ok := entry[name]
		if !ok {
			continue
		}

		_, err = sec.NewKey(name, value)
		if err != nil {
			return fmt.Errorf("setting %s.%s: %w", index, name, err)
		}
	}

	savePhoto(bookPath, entry[fieldName], photo)

	return nil
}
