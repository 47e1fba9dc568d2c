package catalog

// Category groups weapons on the storefront. Slug is the URL-safe lookup key.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// Weapon is a single catalog product. CategoryID is a plain foreign key into
// the categories collection; it is not enforced, a weapon may outlive its
// category.
type Weapon struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Slug             string   `json:"slug"`
	CategoryID       string   `json:"categoryId"`
	Price            float64  `json:"price"`
	Images           []string `json:"images"`
	VideoURL         string   `json:"videoUrl,omitempty"`
	ShortDescription string   `json:"shortDescription"`
	FullDescription  string   `json:"fullDescription"`
	Specifications   Specs    `json:"specifications"`
}

// Settings is the single global settings record.
type Settings struct {
	OrderButtonURL string `json:"orderButtonUrl"`
}

// StoreData is the aggregate root: the whole catalog as stored in the remote
// document. It is always fetched and written as one unit; there are no partial
// writes.
type StoreData struct {
	Categories []Category `json:"categories"`
	Weapons    []Weapon   `json:"weapons"`
	Settings   *Settings  `json:"settings,omitempty"`
}

// Clone returns a deep copy of the document so a mutation can be prepared and
// persisted without touching the cached copy.
func (d *StoreData) Clone() *StoreData {
	out := &StoreData{
		Categories: make([]Category, len(d.Categories)),
		Weapons:    make([]Weapon, len(d.Weapons)),
	}
	copy(out.Categories, d.Categories)
	for i, w := range d.Weapons {
		cw := w
		if w.Images != nil {
			cw.Images = append([]string(nil), w.Images...)
		}
		if w.Specifications != nil {
			cw.Specifications = append(Specs(nil), w.Specifications...)
		}
		out.Weapons[i] = cw
	}
	if d.Settings != nil {
		s := *d.Settings
		out.Settings = &s
	}
	return out
}

// CategoryUpdate carries the updatable fields of a category; nil fields are
// left untouched.
type CategoryUpdate struct {
	Name        *string `json:"name,omitempty"`
	Slug        *string `json:"slug,omitempty"`
	Description *string `json:"description,omitempty"`
	Image       *string `json:"image,omitempty"`
}

// WeaponUpdate carries the updatable fields of a weapon.
type WeaponUpdate struct {
	Name             *string  `json:"name,omitempty"`
	Slug             *string  `json:"slug,omitempty"`
	CategoryID       *string  `json:"categoryId,omitempty"`
	Price            *float64 `json:"price,omitempty"`
	Images           []string `json:"images,omitempty"`
	VideoURL         *string  `json:"videoUrl,omitempty"`
	ShortDescription *string  `json:"shortDescription,omitempty"`
	FullDescription  *string  `json:"fullDescription,omitempty"`
	Specifications   Specs    `json:"specifications,omitempty"`
}

// SettingsUpdate carries the updatable settings fields.
type SettingsUpdate struct {
	OrderButtonURL *string `json:"orderButtonUrl,omitempty"`
}
