package abook

import (
	"encoding/base64"
	"strings"

	"github.com/emersion/go-vcard"
)

// vCard parameter for inline binary payloads (vCard 3.0 style).
const paramEncoding = "ENCODING"

// addrFields are the entry fields whose presence triggers an ADR
// property. A bare state field does not; abook has always left it out of
// this check and round-tripping depends on matching that.
var addrFields = []string{fieldAddress, fieldAddress2, fieldCity, fieldCountry, fieldZip}

// splitName splits a display name for the structured N property: the
// last space-separated token is the family name, everything before it is
// the given name. A single token is all family name.
func splitName(name string) (family, given string) {
	i := strings.LastIndex(name, " ")
	if i < 0 {
		return name, ""
	}

	return name[i+1:], name[:i]
}

// ToCard converts one addressbook entry into a vCard. The photo, when
// non-nil, is attached as a base64 PHOTO property; the caller loads it
// so the mapping itself stays free of I/O.
func ToCard(e Entry, uid string, photo *Photo) vcard.Card {
	card := make(vcard.Card)

	card.SetValue(vcard.FieldVersion, "3.0")
	card.SetValue(vcard.FieldUID, uid)
	card.SetValue(vcard.FieldFormattedName, e[fieldName])

	family, given := splitName(e[fieldName])
	card.AddName(&vcard.Name{FamilyName: family, GivenName: given})

	for _, email := range strings.Split(e[fieldEmail], ",") {
		if email != "" {
			card.AddValue(vcard.FieldEmail, email)
		}
	}

	if entryHasAddress(e) {
		card.AddAddress(&vcard.Address{
			StreetAddress:   e[fieldAddress],
			ExtendedAddress: e[fieldAddress2],
			Locality:        e[fieldCity],
			Region:          e[fieldState],
			PostalCode:      e[fieldZip],
			Country:         e[fieldCountry],
		})
	}

	addTel(card, e, fieldOther, "")
	addTel(card, e, fieldPhone, vcard.TypeHome)
	addTel(card, e, fieldWorkphone, vcard.TypeWork)
	addTel(card, e, fieldMobile, vcard.TypeCell)

	if v := e[fieldNick]; v != "" {
		card.SetValue(vcard.FieldNickname, v)
	}

	if v := e[fieldURL]; v != "" {
		card.SetValue(vcard.FieldURL, v)
	}

	if v := e[fieldNotes]; v != "" {
		card.SetValue(vcard.FieldNote, v)
	}

	if photo != nil {
		card.Set(vcard.FieldPhoto, &vcard.Field{
			Value: base64.StdEncoding.EncodeToString(photo.Data),
			Params: vcard.Params{
				vcard.ParamType: {photo.Type},
				paramEncoding:   {"b"},
			},
		})
	}

	return card
}

func entryHasAddress(e Entry) bool {
	for _, name := range addrFields {
		if _, ok := e[name]; ok {
			return true
		}
	}

	return false
}

// addTel emits one TEL property for the given entry field. No type means
// abook's "other" number and carries no TYPE parameter.
func addTel(card vcard.Card, e Entry, field, telType string) {
	value, ok := e[field]
	if !ok {
		return
	}

	tel := &vcard.Field{Value: value}
	if telType != "" {
		tel.Params = vcard.Params{vcard.ParamType: {telType}}
	}

	card.Add(vcard.FieldTelephone, tel)
}

// FromCard converts a vCard into addressbook fields. The photo property,
// if any, is decoded and returned separately so the caller can store it
// beside the destination file. FromCard never fails; cards without an FN
// simply yield an entry without a name, which the store rejects.
func FromCard(card vcard.Card) (Entry, *Photo) {
	e := Entry{}

	if fn := card.Value(vcard.FieldFormattedName); fn != "" {
		e[fieldName] = fn
	}

	if emails := card.Values(vcard.FieldEmail); len(emails) > 0 {
		e[fieldEmail] = strings.Join(emails, ",")
	}

	if addr := card.Address(); addr != nil {
		convAddress(addr, e)
	}

	for _, tel := range card[vcard.FieldTelephone] {
		convTel(tel, e)
	}

	if v := card.Value(vcard.FieldNickname); v != "" {
		e[fieldNick] = v
	}

	if v := card.Value(vcard.FieldURL); v != "" {
		e[fieldURL] = v
	}

	if v := card.Value(vcard.FieldNote); v != "" {
		e[fieldNotes] = v
	}

	return e, photoFromCard(card)
}

// convAddress maps ADR components to entry fields, skipping empty ones.
// A postal code of the literal "0" is treated as absent; abook writes
// "0" for unset zips and round-tripping must not resurrect it.
func convAddress(addr *vcard.Address, e Entry) {
	if addr.StreetAddress != "" {
		e[fieldAddress] = addr.StreetAddress
	}

	if addr.ExtendedAddress != "" {
		e[fieldAddress2] = addr.ExtendedAddress
	}

	if addr.Locality != "" {
		e[fieldCity] = addr.Locality
	}

	if addr.Region != "" {
		e[fieldState] = addr.Region
	}

	if addr.PostalCode != "" && addr.PostalCode != "0" {
		e[fieldZip] = addr.PostalCode
	}

	if addr.Country != "" {
		e[fieldCountry] = addr.Country
	}
}

// convTel maps one TEL property to the matching phone field. Numbers
// with an unrecognized TYPE are dropped; abook has no field for them.
func convTel(tel *vcard.Field, e Entry) {
	var telType string
	if tel.Params != nil {
		telType = tel.Params.Get(vcard.ParamType)
	}

	switch strings.ToLower(telType) {
	case "":
		e[fieldOther] = tel.Value
	case vcard.TypeHome:
		e[fieldPhone] = tel.Value
	case vcard.TypeWork:
		e[fieldWorkphone] = tel.Value
	case vcard.TypeCell:
		e[fieldMobile] = tel.Value
	}
}

// photoFromCard decodes an inline PHOTO property. Undecodable payloads
// are dropped; photos never fail a conversion.
func photoFromCard(card vcard.Card) *Photo {
	field := card.Get(vcard.FieldPhoto)
	if field == nil || field.Value == "" {
		return nil
	}

	data, err := base64.StdEncoding.DecodeString(field.Value)
	if err != nil {
		return nil
	}

	photoType := "jpeg"
	if field.Params != nil {
		if t := field.Params.Get(vcard.ParamType); t != "" {
			photoType = strings.ToLower(t)
		}
	}

	return &Photo{Type: photoType, Data: data}
}
