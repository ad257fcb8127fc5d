package shipping

import (
	"strings"

	"github.com/google/uuid"

	pkgerrors "github.com/stonebridge/storefront-backend/pkg/errors"
)

// IntentKind says what a shipment selector asks for.
type IntentKind int

const (
	// UseExisting targets a shipment already on the basket.
	UseExisting IntentKind = iota
	// CreateNew asks for a fresh shipment.
	CreateNew
	// AddressBook asks for a shipment fed from an address book entry.
	AddressBook
)

const (
	newSelector       = "new"
	addressBookPrefix = "ab_"
)

// Intent is the decoded form of a shipment selector string. Selectors are
// decoded once at the API boundary; everything downstream branches on Kind
// instead of re-parsing the raw value.
type Intent struct {
	Kind       IntentKind
	ShipmentID uuid.UUID
	AddressID  uuid.UUID
	// OriginalID preserves the raw selector for response payloads.
	OriginalID string
}

// DecodeIntent parses a selector of the form "new", "ab_<uuid>", or a plain
// shipment UUID.
func DecodeIntent(selector string) (Intent, error) {
	raw := strings.TrimSpace(selector)
	if raw == "" {
		return Intent{}, pkgerrors.New(pkgerrors.CodeValidation, "shipment selector is required")
	}

	if raw == newSelector {
		return Intent{Kind: CreateNew, OriginalID: raw}, nil
	}

	if strings.HasPrefix(raw, addressBookPrefix) {
		id, err := uuid.Parse(strings.TrimPrefix(raw, addressBookPrefix))
		if err != nil {
			return Intent{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid address book selector")
		}
		return Intent{Kind: AddressBook, AddressID: id, OriginalID: raw}, nil
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return Intent{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid shipment selector")
	}
	return Intent{Kind: UseExisting, ShipmentID: id, OriginalID: raw}, nil
}
