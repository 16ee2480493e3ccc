package outline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tripYAML = `name: Trip
root:
  title: Trip
  children:
    - title: Flights
      highlighted: true
      children:
        - title: Outbound
    - title: Hotel
`

func TestParse(t *testing.T) {
	p, err := Parse([]byte(tripYAML))
	require.NoError(t, err)

	assert.Equal(t, "Trip", p.Name)
	assert.Equal(t, "Trip", p.Root.Title)
	require.Len(t, p.Root.Children, 2)
	assert.True(t, p.Root.Children[0].Highlighted)
	assert.Equal(t, "Outbound", p.Root.Children[0].Children[0].Title)
	assert.Equal(t, 4, p.Root.Count())
}

func TestParse_RootTitleDefaultsToName(t *testing.T) {
	p, err := Parse([]byte("name: Garden\nroot:\n  children:\n    - title: Beds\n"))
	require.NoError(t, err)
	assert.Equal(t, "Garden", p.Root.Title)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing name", "root:\n  title: x\n"},
		{"blank child title", "name: Trip\nroot:\n  children:\n    - title: '  '\n"},
		{"unknown field", "name: Trip\npriority: high\n"},
		{"not yaml", "name: [unclosed"},
		{"empty document", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestParse_BlankTitleIsInvalid(t *testing.T) {
	_, err := Parse([]byte("name: Trip\nroot:\n  children:\n    - title: Flights\n      children:\n        - title: ''\n"))
	assert.ErrorIs(t, err, ErrInvalid)
	assert.ErrorContains(t, err, "Trip > Flights")
}

func TestMarshalParseRoundTrip(t *testing.T) {
	want := Plan{
		Name: "Trip",
		Root: Node{Title: "Trip", Children: []Node{
			{Title: "Flights", Highlighted: true, Children: []Node{{Title: "Outbound"}}},
			{Title: "Hotel"},
		}},
	}

	data, err := Marshal(want)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "highlighted: false")

	got, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
