package language_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/fieldplan/internal/language"
	"github.com/hanpama/fieldplan/internal/selection"
)

func TestParseSelection(t *testing.T) {
	tree, err := language.ParseSelection(`{ id title comments { body author { name } } }`)
	require.NoError(t, err)

	want := selection.Tree{
		selection.Leaf("id"),
		selection.Leaf("title"),
		selection.With("comments",
			selection.Leaf("body"),
			selection.With("author", selection.Leaf("name")),
		),
	}
	if diff := cmp.Diff(want, tree); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSelectionArguments(t *testing.T) {
	tree, err := language.ParseSelection(`{ similar(limit: 2, query: "go") { title } }`)
	require.NoError(t, err)

	require.Len(t, tree, 1)
	node := tree[0]
	require.True(t, node.HasArgs)
	require.Equal(t, map[string]any{"limit": int64(2), "query": "go"}, node.Args)
	require.Equal(t, selection.Tree{selection.Leaf("title")}, node.Children)
}

func TestParseSelectionValueKinds(t *testing.T) {
	tree, err := language.ParseSelection(`{ calc(f: 1.5, b: true, n: null, l: [1, 2], o: {k: "v"}) { x } }`)
	require.NoError(t, err)

	args := tree[0].Args
	require.Equal(t, 1.5, args["f"])
	require.Equal(t, true, args["b"])
	require.Nil(t, args["n"])
	require.Equal(t, []any{int64(1), int64(2)}, args["l"])
	require.Equal(t, map[string]any{"k": "v"}, args["o"])
}

func TestParseSelectionRejects(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"named operation", `query Q { id }`},
		{"fragment spread", `{ ...f }`},
		{"alias", `{ other: id }`},
		{"variable argument", `{ calc(x: $v) { y } }`},
		{"syntax error", `{ id`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := language.ParseSelection(tc.src)
			require.Error(t, err)
		})
	}
}
