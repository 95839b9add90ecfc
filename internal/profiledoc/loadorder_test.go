package profiledoc_test

import (
	"testing"

	"github.com/DonovanMods/me3-mod-manager/internal/domain"
	"github.com/DonovanMods/me3-mod-manager/internal/profiledoc"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(nodes []profiledoc.LoadNode) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func TestLoadOrder_NoRelations(t *testing.T) {
	doc := &profiledoc.Document{
		Natives:  []profiledoc.NativeEntry{{Path: "m/a.dll"}, {Path: "m/b.dll"}},
		Packages: []profiledoc.PackageEntry{{ID: "P", Path: "m/P"}},
	}

	order, err := profiledoc.NewLoadOrderResolver().Resolve(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "P"}, ids(order))
}

func TestLoadOrder_AfterAndBefore(t *testing.T) {
	doc := &profiledoc.Document{
		Natives: []profiledoc.NativeEntry{
			{Path: "m/a.dll", LoadAfter: []domain.Dependency{{ID: "b"}}},
			{Path: "m/b.dll"},
			{Path: "m/c.dll", LoadBefore: []domain.Dependency{{ID: "b"}}},
		},
	}

	order, err := profiledoc.NewLoadOrderResolver().Resolve(doc)
	require.NoError(t, err)

	pos := make(map[string]int)
	for i, id := range ids(order) {
		pos[id] = i
	}
	assert.Less(t, pos["b"], pos["a"], "a loads after b")
	assert.Less(t, pos["c"], pos["b"], "c loads before b")
}

func TestLoadOrder_Cycle(t *testing.T) {
	doc := &profiledoc.Document{
		Natives: []profiledoc.NativeEntry{
			{Path: "m/a.dll", LoadAfter: []domain.Dependency{{ID: "b"}}},
			{Path: "m/b.dll", LoadAfter: []domain.Dependency{{ID: "a"}}},
		},
	}

	_, err := profiledoc.NewLoadOrderResolver().Resolve(doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDependencyLoop)
}

func TestLoadOrder_CycleThroughPackages(t *testing.T) {
	doc := &profiledoc.Document{
		Natives: []profiledoc.NativeEntry{
			{Path: "m/a.dll", LoadBefore: []domain.Dependency{{ID: "P"}}},
		},
		Packages: []profiledoc.PackageEntry{
			{ID: "P", Path: "m/P", LoadBefore: []domain.Dependency{{ID: "a"}}},
		},
	}

	_, err := profiledoc.NewLoadOrderResolver().Resolve(doc)
	assert.ErrorIs(t, err, domain.ErrDependencyLoop)
}

func TestLoadOrder_MissingTargetsIgnoredWhenResolving(t *testing.T) {
	doc := &profiledoc.Document{
		Natives: []profiledoc.NativeEntry{
			{Path: "m/a.dll", LoadAfter: []domain.Dependency{{ID: "ghost"}}},
			{NexusLink: "https://www.nexusmods.com/eldenring/mods/1"},
		},
	}

	order, err := profiledoc.NewLoadOrderResolver().Resolve(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(order), "pending natives are skipped")
}

func TestLoadOrder_Validate(t *testing.T) {
	doc := &profiledoc.Document{
		Natives: []profiledoc.NativeEntry{
			{Path: "m/a.dll", LoadAfter: []domain.Dependency{{ID: "ghost"}, {ID: "maybe", Optional: true}}},
			{Path: "m/b.dll", LoadBefore: []domain.Dependency{{ID: "b"}}},
		},
		Packages: []profiledoc.PackageEntry{
			{ID: "P", Path: "m/P", LoadAfter: []domain.Dependency{{ID: "a"}}},
		},
	}

	problems := profiledoc.NewLoadOrderResolver().Validate(doc)
	require.Len(t, problems, 2)
	assert.Equal(t, "ghost", problems[0].Target)
	assert.Contains(t, problems[0].Message, "not enabled")
	assert.Equal(t, "b", problems[1].From)
	assert.Contains(t, problems[1].Message, "itself")
}
