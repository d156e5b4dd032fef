package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PackageInput is the full-replacement payload for one package. On create the
// id is absent; on edit it selects the package to update.
type PackageInput struct {
	PackageID   *uuid.UUID        `json:"package_id,omitempty"`
	Name        *string           `json:"package_name,omitempty"`
	MediaURL    *string           `json:"package_media,omitempty"`
	SubPackages []SubPackageInput `json:"sub_packages"`
}

// SubPackageInput describes one sub-package. A present id means update in
// place; an absent id means insert as new.
type SubPackageInput struct {
	SubPackageID        *uuid.UUID             `json:"sub_package_id,omitempty"`
	Name                *string                `json:"item_name,omitempty"`
	Description         *string                `json:"description,omitempty"`
	Price               *decimal.Decimal       `json:"price,omitempty"`
	TimeRequiredMinutes *int                   `json:"time_required,omitempty"`
	MediaURL            *string                `json:"item_media,omitempty"`
	Preferences         []PreferenceGroupInput `json:"preferences,omitempty"`
	Addons              []AddonInput           `json:"addons,omitempty"`
	ConsentForm         []ConsentInput         `json:"consent_form,omitempty"`
}

// PreferenceGroupInput is one submitted preference group. Requiredness is
// group-level and applies to every option inside it.
type PreferenceGroupInput struct {
	GroupKey   string                  `json:"group_key"`
	IsRequired bool                    `json:"is_required"`
	Items      []PreferenceOptionInput `json:"items"`
}

// PreferenceOptionInput is a single option value under a group.
type PreferenceOptionInput struct {
	Value               string          `json:"preference_value"`
	Price               decimal.Decimal `json:"preference_price"`
	TimeRequiredMinutes int             `json:"time_required"`
}

// AddonInput describes one addon; present id = update, absent = insert.
type AddonInput struct {
	AddonID             *uuid.UUID       `json:"addon_id,omitempty"`
	Name                *string          `json:"addon_name,omitempty"`
	Description         *string          `json:"description,omitempty"`
	Price               *decimal.Decimal `json:"price,omitempty"`
	TimeRequiredMinutes *int             `json:"time_required,omitempty"`
}

// ConsentInput describes one consent question; present id = update.
type ConsentInput struct {
	ConsentID  *uuid.UUID `json:"consent_id,omitempty"`
	Question   *string    `json:"question,omitempty"`
	IsRequired bool       `json:"is_required"`
}
