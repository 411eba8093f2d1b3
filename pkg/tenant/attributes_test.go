package tenant_test

import (
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharedschema/tenantkit/pkg/tenant"
	"github.com/sharedschema/tenantkit/pkg/validator"
)

func urlValidator(v any) error {
	s, ok := v.(string)
	if !ok {
		return errors.New("must be a valid URL")
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("must be a valid URL")
	}
	return nil
}

func logoSchema(t *testing.T) *tenant.Schema {
	t.Helper()
	s, err := tenant.NewSchema(map[string]tenant.FieldSchema{
		"logo": {Type: tenant.AttrString, Required: true, Validators: []string{"url"}},
	}, tenant.WithValidator("url", urlValidator))
	require.NoError(t, err)
	return s
}

func TestNewSchema(t *testing.T) {
	t.Parallel()

	t.Run("unsupported type fails at construction", func(t *testing.T) {
		t.Parallel()

		_, err := tenant.NewSchema(map[string]tenant.FieldSchema{
			"logo": {Type: "image"},
		})
		assert.ErrorIs(t, err, tenant.ErrInvalidTypeConfiguration)
	})

	t.Run("unregistered validator fails at construction", func(t *testing.T) {
		t.Parallel()

		_, err := tenant.NewSchema(map[string]tenant.FieldSchema{
			"logo": {Type: tenant.AttrString, Validators: []string{"url"}},
		})
		assert.ErrorIs(t, err, tenant.ErrInvalidTypeConfiguration)
	})
}

func TestSchemaValidate(t *testing.T) {
	t.Parallel()

	t.Run("validator failure keyed by field", func(t *testing.T) {
		t.Parallel()

		err := logoSchema(t).Validate(map[string]any{"logo": "not-a-url"}, false)
		require.Error(t, err)

		ve := validator.Extract(err)
		require.True(t, ve.Has("logo"))
		assert.Equal(t, []string{"must be a valid URL"}, ve.Get("logo"))
	})

	t.Run("unknown key rejected", func(t *testing.T) {
		t.Parallel()

		err := logoSchema(t).Validate(map[string]any{"banner": "x"}, true)
		require.Error(t, err)
		assert.True(t, validator.Extract(err).Has("banner"))
	})

	t.Run("missing required key rejected on full update", func(t *testing.T) {
		t.Parallel()

		err := logoSchema(t).Validate(map[string]any{}, false)
		require.Error(t, err)
		assert.True(t, validator.Extract(err).Has("logo"))
	})

	t.Run("missing key tolerated on partial update", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, logoSchema(t).Validate(map[string]any{}, true))
	})

	t.Run("type mismatch stops the validator chain", func(t *testing.T) {
		t.Parallel()

		err := logoSchema(t).Validate(map[string]any{"logo": 42}, false)
		require.Error(t, err)
		assert.Equal(t, []string{"must be a valid string"}, validator.Extract(err).Get("logo"))
	})

	t.Run("errors accumulate across fields", func(t *testing.T) {
		t.Parallel()

		s, err := tenant.NewSchema(map[string]tenant.FieldSchema{
			"logo":  {Type: tenant.AttrString, Required: true, Validators: []string{"url"}},
			"motto": {Type: tenant.AttrString, Required: true},
			"size":  {Type: tenant.AttrNumber},
		}, tenant.WithValidator("url", urlValidator))
		require.NoError(t, err)

		err = s.Validate(map[string]any{
			"logo": "nope",
			"size": "large",
		}, false)
		require.Error(t, err)

		ve := validator.Extract(err)
		assert.ElementsMatch(t, []string{"logo", "motto", "size"}, ve.Fields())
	})

	t.Run("per-field chain short-circuits on first failure", func(t *testing.T) {
		t.Parallel()

		calls := 0
		never := func(v any) error { calls++; return fmt.Errorf("always fails (%d)", calls) }

		s, err := tenant.NewSchema(map[string]tenant.FieldSchema{
			"x": {Type: tenant.AttrString, Validators: []string{"a", "b"}},
		}, tenant.WithValidator("a", never), tenant.WithValidator("b", never))
		require.NoError(t, err)

		err = s.Validate(map[string]any{"x": "v"}, false)
		require.Error(t, err)
		assert.Equal(t, 1, calls)
		assert.Len(t, validator.Extract(err).Get("x"), 1)
	})
}

func TestSchemaApply(t *testing.T) {
	t.Parallel()

	s := logoSchema(t)
	current := map[string]any{"logo": "https://a.example/logo.png", "extra": "kept"}

	t.Run("partial merges", func(t *testing.T) {
		t.Parallel()

		out := s.Apply(current, map[string]any{"logo": "https://b.example/l.png"}, true)
		assert.Equal(t, "https://b.example/l.png", out["logo"])
		assert.Equal(t, "kept", out["extra"])
	})

	t.Run("full replaces", func(t *testing.T) {
		t.Parallel()

		out := s.Apply(current, map[string]any{"logo": "https://b.example/l.png"}, false)
		assert.NotContains(t, out, "extra")
	})
}

func TestSchemaDefaults(t *testing.T) {
	t.Parallel()

	s, err := tenant.NewSchema(map[string]tenant.FieldSchema{
		"logo":  {Type: tenant.AttrString, Default: "https://cdn.example/default.png"},
		"limit": {Type: tenant.AttrNumber, Default: 10},
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"logo":  "https://cdn.example/default.png",
		"limit": 10,
	}, s.Defaults())
}
