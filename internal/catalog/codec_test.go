package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecode_ValidDocument(t *testing.T) {
	raw := []byte(`{
  "categories": [{"id":"1","name":"Pistols","slug":"pistols","description":"d","image":"i"}],
  "weapons": [],
  "settings": {"orderButtonUrl":"https://t.me/x"}
}`)
	d, err := Decode(raw)
	require.NoError(t, err)
	require.Len(t, d.Categories, 1)
	require.Equal(t, "pistols", d.Categories[0].Slug)
	require.NotNil(t, d.Settings)
	require.Equal(t, "https://t.me/x", d.Settings.OrderButtonURL)
}

func TestDecode_SettingsOptional(t *testing.T) {
	d, err := Decode([]byte(`{"categories":[],"weapons":[]}`))
	require.NoError(t, err)
	require.Nil(t, d.Settings)
}

func TestDecode_RejectsInvalidJSON(t *testing.T) {
	_, err := Decode([]byte(`{not json`))
	require.ErrorIs(t, err, ErrMalformedDocument)
}

func TestDecode_RejectsInvalidUTF8(t *testing.T) {
	_, err := Decode([]byte{0xff, 0xfe, '{', '}'})
	require.ErrorIs(t, err, ErrMalformedDocument)
}

func TestDecode_RequiresCollections(t *testing.T) {
	_, err := Decode([]byte(`{"weapons":[]}`))
	require.ErrorIs(t, err, ErrMalformedDocument)

	_, err = Decode([]byte(`{"categories":[]}`))
	require.ErrorIs(t, err, ErrMalformedDocument)
}

func TestEncode_PrettyPrinted(t *testing.T) {
	d := &StoreData{
		Categories: []Category{{ID: "1", Name: "Rifles", Slug: "rifles"}},
		Weapons:    []Weapon{},
	}
	raw, err := Encode(d)
	require.NoError(t, err)
	require.Contains(t, string(raw), "\n  \"categories\"")

	back, err := Decode(raw)
	require.NoError(t, err)
	require.Equal(t, d.Categories, back.Categories)
}

func TestClone_IndependentCopies(t *testing.T) {
	d := &StoreData{
		Categories: []Category{{ID: "1", Name: "Rifles"}},
		Weapons: []Weapon{{
			ID:             "10",
			Images:         []string{"a.jpg"},
			Specifications: Specs{{Name: "caliber", Value: "7.62"}},
		}},
		Settings: &Settings{OrderButtonURL: "u"},
	}
	c := d.Clone()
	c.Categories[0].Name = "changed"
	c.Weapons[0].Images[0] = "b.jpg"
	c.Weapons[0].Specifications[0].Value = "5.56"
	c.Settings.OrderButtonURL = "v"

	require.Equal(t, "Rifles", d.Categories[0].Name)
	require.Equal(t, "a.jpg", d.Weapons[0].Images[0])
	v, ok := d.Weapons[0].Specifications.Get("caliber")
	require.True(t, ok)
	require.Equal(t, "7.62", v)
	require.Equal(t, "u", d.Settings.OrderButtonURL)
}

func TestWeaponJSONShape(t *testing.T) {
	w := Weapon{ID: "10", Name: "Glock", Slug: "glock", CategoryID: "1", Price: 500}
	raw, err := json.Marshal(w)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"categoryId":"1"`)
	// empty videoUrl stays off the wire
	require.NotContains(t, string(raw), "videoUrl")
}
