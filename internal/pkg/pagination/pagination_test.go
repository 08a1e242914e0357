package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paramsFor(t *testing.T, target string) *Params {
	t.Helper()

	app := fiber.New()
	var got *Params
	app.Get("/items", func(c *fiber.Ctx) error {
		got = GetParams(c)
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NotNil(t, got)
	return got
}

func TestGetParams_Defaults(t *testing.T) {
	params := paramsFor(t, "/items")

	assert.Equal(t, 1, params.Page)
	assert.Equal(t, DefaultLimit, params.Limit)
	assert.Equal(t, 0, params.Offset)
	assert.Empty(t, params.Search)
}

func TestGetParams_ExplicitValues(t *testing.T) {
	params := paramsFor(t, "/items?page=3&limit=50&search=%20maria%20")

	assert.Equal(t, 3, params.Page)
	assert.Equal(t, 50, params.Limit)
	assert.Equal(t, 100, params.Offset)
	assert.Equal(t, "maria", params.Search)
}

func TestGetParams_Clamps(t *testing.T) {
	tests := []struct {
		name      string
		target    string
		wantPage  int
		wantLimit int
	}{
		{"zero page", "/items?page=0", 1, DefaultLimit},
		{"negative page", "/items?page=-2", 1, DefaultLimit},
		{"zero limit", "/items?limit=0", 1, DefaultLimit},
		{"negative limit", "/items?limit=-1", 1, DefaultLimit},
		{"limit above maximum", "/items?limit=500", 1, MaxLimit},
		{"non numeric values", "/items?page=abc&limit=xyz", 1, DefaultLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := paramsFor(t, tt.target)
			assert.Equal(t, tt.wantPage, params.Page)
			assert.Equal(t, tt.wantLimit, params.Limit)
		})
	}
}

func TestGetMeta(t *testing.T) {
	meta := GetMeta(&Params{Page: 2, Limit: 20}, 45)

	assert.Equal(t, int64(45), meta.Total)
	assert.Equal(t, 3, meta.TotalPages)
	assert.True(t, meta.HasNext)
	assert.True(t, meta.HasPrev)
}

func TestGetMeta_ExactDivision(t *testing.T) {
	meta := GetMeta(&Params{Page: 2, Limit: 20}, 40)

	assert.Equal(t, 2, meta.TotalPages)
	assert.False(t, meta.HasNext)
	assert.True(t, meta.HasPrev)
}

func TestGetMeta_Empty(t *testing.T) {
	meta := GetMeta(&Params{Page: 1, Limit: 20}, 0)

	assert.Equal(t, 0, meta.TotalPages)
	assert.False(t, meta.HasNext)
	assert.False(t, meta.HasPrev)
}

func TestNewResponse(t *testing.T) {
	data := []string{"a", "b"}
	resp := NewResponse(data, &Params{Page: 1, Limit: 2}, 4)

	assert.Equal(t, data, resp.Data)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 2, resp.Meta.TotalPages)
	assert.True(t, resp.Meta.HasNext)
	assert.False(t, resp.Meta.HasPrev)
}
