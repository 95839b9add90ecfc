package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/DonovanMods/me3-mod-manager/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestModKind_String(t *testing.T) {
	assert.Equal(t, "dll", domain.KindDLL.String())
	assert.Equal(t, "package", domain.KindPackage.String())
	assert.Equal(t, "nested_dll", domain.KindNestedDLL.String())
	assert.True(t, domain.KindNestedDLL.IsNative())
	assert.False(t, domain.KindPackage.IsNative())
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "enabled", domain.StatusEnabled.String())
	assert.Equal(t, "disabled", domain.StatusDisabled.String())
	assert.Equal(t, "missing", domain.StatusMissing.String())
}

func TestSortedMods(t *testing.T) {
	mods := map[string]domain.ModInfo{
		"/m/b":     {ModArtifact: domain.ModArtifact{Path: "/m/b", Name: "b", Kind: domain.KindPackage}},
		"/m/z.dll": {ModArtifact: domain.ModArtifact{Path: "/m/z.dll", Name: "z", Kind: domain.KindDLL}},
		"/m/a.dll": {ModArtifact: domain.ModArtifact{Path: "/m/a.dll", Name: "a", Kind: domain.KindDLL}},
	}

	sorted := domain.SortedMods(mods)
	names := []string{sorted[0].Name, sorted[1].Name, sorted[2].Name}
	assert.Equal(t, []string{"a", "z", "b"}, names)
}

func TestAdvancedOptions_Normalized(t *testing.T) {
	opts := domain.AdvancedOptions{
		Initializer: &domain.Initializer{},
		LoadBefore:  []domain.Dependency{},
	}
	assert.True(t, opts.Normalized().IsZero())

	opts.Finalizer = "shutdown"
	assert.False(t, opts.Normalized().IsZero())
}

func TestValidationError_Is(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", domain.NewValidationError("mod %q not allowed", "x"))
	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.False(t, errors.Is(err, domain.ErrIO))
	assert.Contains(t, err.Error(), `mod "x" not allowed`)
}

func TestIOError_Unwrap(t *testing.T) {
	inner := errors.New("disk full")
	err := &domain.IOError{Op: "write", Path: "/tmp/p.me3", Err: inner}
	assert.True(t, errors.Is(err, domain.ErrIO))
	assert.True(t, errors.Is(err, inner))
	assert.Equal(t, "write /tmp/p.me3: disk full", err.Error())
}

func TestGame_LaunchSlug(t *testing.T) {
	games := domain.DefaultGames()
	assert.Equal(t, "eldenring", games["elden-ring"].LaunchSlug())
	assert.Equal(t, "darksouls3", games["ds3"].LaunchSlug())
	assert.Len(t, games, 5)
}
