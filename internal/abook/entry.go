package abook

// Section name abook reserves for file metadata. Never an entry.
const formatSection = "format"

// Contents of the format section.
const (
	formatProgram = "abook"
	formatVersion = "0.6.1"
)

// Field names recognized by abook. Sections may carry other keys; those
// pass through the file untouched but mean nothing to the converter.
const (
	fieldName      = "name"
	fieldEmail     = "email"
	fieldAddress   = "address"
	fieldAddress2  = "address2"
	fieldCity      = "city"
	fieldState     = "state"
	fieldZip       = "zip"
	fieldCountry   = "country"
	fieldPhone     = "phone"
	fieldWorkphone = "workphone"
	fieldMobile    = "mobile"
	fieldOther     = "other"
	fieldNick      = "nick"
	fieldURL       = "url"
	fieldNotes     = "notes"
)

// fieldOrder is the order fields are written within a section.
var fieldOrder = []string{
	fieldName,
	fieldEmail,
	fieldAddress,
	fieldAddress2,
	fieldCity,
	fieldState,
	fieldZip,
	fieldCountry,
	fieldPhone,
	fieldWorkphone,
	fieldMobile,
	fieldOther,
	fieldNick,
	fieldURL,
	fieldNotes,
}

// Entry is the flat field mapping of one addressbook section.
type Entry map[string]string
