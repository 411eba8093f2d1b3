package customfields_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharedschema/tenantkit/pkg/customfields"
	"github.com/sharedschema/tenantkit/pkg/validator"
)

func TestRegistryValidate(t *testing.T) {
	t.Parallel()

	target := customfields.Target{Kind: kindTicket}

	setup := func(t *testing.T) (*customfields.Registry, []*customfields.Definition) {
		t.Helper()
		reg, _ := newRegistry()
		ctx := tenantCtx("acme")

		_, err := reg.Define(ctx, customfields.DefineInput{
			Target: target, Name: "severity", Type: customfields.TypeInteger,
			Required: true, Validators: []string{"severity_range"},
		})
		require.NoError(t, err)
		_, err = reg.Define(ctx, customfields.DefineInput{
			Target: target, Name: "summary", Type: customfields.TypeChar, Required: true,
		})
		require.NoError(t, err)
		_, err = reg.Define(ctx, customfields.DefineInput{
			Target: target, Name: "env", Type: customfields.TypeChar, Default: "production",
		})
		require.NoError(t, err)

		defs, err := reg.ListFor(ctx, target)
		require.NoError(t, err)
		return reg, defs
	}

	t.Run("valid payload coerces and fills defaults", func(t *testing.T) {
		t.Parallel()

		reg, defs := setup(t)
		out, err := reg.Validate(defs, map[string]any{
			"severity": float64(4), // as JSON decoding delivers it
			"summary":  "crash on login",
		}, false)
		require.NoError(t, err)
		assert.Equal(t, int64(4), out["severity"])
		assert.Equal(t, "production", out["env"], "default fills absent field")
	})

	t.Run("validator failure keyed by field", func(t *testing.T) {
		t.Parallel()

		reg, defs := setup(t)
		_, err := reg.Validate(defs, map[string]any{
			"severity": 9,
			"summary":  "ok",
		}, false)
		require.Error(t, err)
		assert.Equal(t, []string{"must be between 1 and 5"}, validator.Extract(err).Get("severity"))
	})

	t.Run("failures accumulate across fields", func(t *testing.T) {
		t.Parallel()

		reg, defs := setup(t)
		_, err := reg.Validate(defs, map[string]any{
			"severity": "critical",
			"unknown":  "x",
		}, false)
		require.Error(t, err)

		ve := validator.Extract(err)
		assert.ElementsMatch(t, []string{"severity", "summary", "unknown"}, ve.Fields())
	})

	t.Run("coercion failure stops the field's validator chain", func(t *testing.T) {
		t.Parallel()

		reg, defs := setup(t)
		_, err := reg.Validate(defs, map[string]any{
			"severity": "not-a-number",
			"summary":  "ok",
		}, false)
		require.Error(t, err)
		// One message for severity: the range validator never ran.
		assert.Len(t, validator.Extract(err).Get("severity"), 1)
	})

	t.Run("partial update skips absent required fields", func(t *testing.T) {
		t.Parallel()

		reg, defs := setup(t)
		out, err := reg.Validate(defs, map[string]any{"env": "staging"}, true)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"env": "staging"}, out)
	})

	t.Run("validation errors are not type configuration errors", func(t *testing.T) {
		t.Parallel()

		reg, defs := setup(t)
		_, err := reg.Validate(defs, map[string]any{"severity": 9, "summary": "ok"}, false)
		require.Error(t, err)
		assert.False(t, errors.Is(err, customfields.ErrInvalidTypeConfiguration))
	})
}
