package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const productListJSON = `[
	{"id": 1, "name": "Phone A", "slug": "phone-a", "price": "1999.90", "image_url": "/img/a.png"},
	{"id": "2", "name": "Phone B", "slug": "phone-b", "price": "2499.00", "image_url": "/img/b.png"}
]`

func TestNormalizeProducts_ThreeShapesAgree(t *testing.T) {
	payloads := map[string][]byte{
		"bare array":      []byte(productListJSON),
		"data envelope":   []byte(`{"data": ` + productListJSON + `}`),
		"nested products": []byte(`{"data": {"products": ` + productListJSON + `}}`),
	}

	for name, raw := range payloads {
		t.Run(name, func(t *testing.T) {
			items, meta, err := NormalizeProducts(raw)
			require.NoError(t, err)
			assert.Nil(t, meta)

			require.Len(t, items, 2)
			assert.Equal(t, "1", items[0].ID.String())
			assert.Equal(t, "Phone A", items[0].Name)
			assert.Equal(t, "1999.9", items[0].Price.String())
			assert.Equal(t, "2", items[1].ID.String())
		})
	}
}

func TestNormalizeProducts_PaginationOnEnvelope(t *testing.T) {
	raw := []byte(`{
		"data": ` + productListJSON + `,
		"pagination": {"totalCount": 47, "currentPage": 2, "pageSize": 15}
	}`)

	_, meta, err := NormalizeProducts(raw)
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, 47, meta.TotalCount)
	assert.Equal(t, 2, meta.CurrentPage)
	assert.Equal(t, 15, meta.PageSize)
}

func TestNormalizeProducts_InnerPaginationWins(t *testing.T) {
	raw := []byte(`{
		"pagination": {"totalCount": 1, "currentPage": 1, "pageSize": 1},
		"data": {
			"products": ` + productListJSON + `,
			"pagination": {"totalCount": 99, "currentPage": 3, "pageSize": 20}
		}
	}`)

	_, meta, err := NormalizeProducts(raw)
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, 99, meta.TotalCount)
	assert.Equal(t, 3, meta.CurrentPage)
}

func TestNormalizeProducts_UnrecognizedShapes(t *testing.T) {
	payloads := map[string][]byte{
		"empty":            []byte(""),
		"whitespace":       []byte("   "),
		"scalar":           []byte(`42`),
		"data is object":   []byte(`{"data": {"items": []}}`),
		"data is null":     []byte(`{"data": null}`),
		"no data field":    []byte(`{"results": []}`),
		"products is null": []byte(`{"data": {"products": null}}`),
		"broken json":      []byte(`{"data": [`),
	}

	for name, raw := range payloads {
		t.Run(name, func(t *testing.T) {
			items, meta, err := NormalizeProducts(raw)
			assert.ErrorIs(t, err, ErrUnrecognizedShape)
			assert.Nil(t, items)
			assert.Nil(t, meta)
		})
	}
}

func TestNormalizeProducts_EmptyList(t *testing.T) {
	items, _, err := NormalizeProducts([]byte(`{"data": []}`))
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestNormalizeProduct(t *testing.T) {
	bare := []byte(`{"id": 7, "name": "Phone C", "price": "999.00", "image_url": "/img/c.png"}`)
	wrapped := []byte(`{"data": {"id": "7", "name": "Phone C", "price": "999.00", "image_url": "/img/c.png"}}`)

	for name, raw := range map[string][]byte{"bare": bare, "wrapped": wrapped} {
		t.Run(name, func(t *testing.T) {
			p, err := NormalizeProduct(raw)
			require.NoError(t, err)
			assert.Equal(t, "7", p.ID.String())
			assert.Equal(t, "Phone C", p.Name)
		})
	}
}

func TestNormalizeProduct_Unrecognized(t *testing.T) {
	for name, raw := range map[string][]byte{
		"array":        []byte(`[]`),
		"empty object": []byte(`{}`),
		"empty":        []byte(``),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NormalizeProduct(raw)
			assert.ErrorIs(t, err, ErrUnrecognizedShape)
		})
	}
}
